// Package http provides http transport for notifications
package http

import (
	stdhttp "net/http"

	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/notifications/domain"
	svc "popreel/internal/services/notifications/service"
)

// Register mounts notification endpoints on the given router; all of them need a user
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.GetQuery[domain.ListInput](pr, "/", h.list)
		httpkit.Post(pr, "/{id}/read", h.read)
	})
}

type handlers struct{ svc svc.Service }

// @Summary Notifications of the signed in user, newest first
// @Tags Notifications
// @Produce json
// @Param limit query int false "Max items"
// @Success 200 {array} model.Notification "ok"
// @Router /notifications [get]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), uid, in.Limit)
}

// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} domain.Read "ok"
// @Router /notifications/{id}/read [post]
func (h *handlers) read(r *stdhttp.Request) (any, error) {
	uid, err := httpkit.User(r)
	if err != nil {
		return nil, err
	}
	id := httpkit.Param(r, "id")
	if err := h.svc.MarkRead(r.Context(), uid, id); err != nil {
		return nil, err
	}
	return domain.Read{ID: id, Read: true}, nil
}
