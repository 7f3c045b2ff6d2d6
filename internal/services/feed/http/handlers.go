// Package http provides http transport for the feed, search and hashtag listings
package http

import (
	stdhttp "net/http"

	"popreel/internal/modkit/httpkit"
	"popreel/internal/services/feed/domain"
	svc "popreel/internal/services/feed/service"
)

// Register mounts the feed at feedPath and the public video lookups beside it
func Register(r httpkit.Router, feedPath string, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.GetQuery[domain.PageInput](r, feedPath, h.page)
	httpkit.Get(r, "/videos/{id}", h.video)
	httpkit.GetQuery[domain.SearchInput](r, "/search", h.search)
	httpkit.GetQuery[domain.TagInput](r, "/hashtags/{tag}", h.tagged)
}

type handlers struct{ svc svc.Service }

// @Summary Reverse chronological feed page
// @Tags Feed
// @Produce json
// @Param page_size query int false "Page size, default 5"
// @Param cursor query string false "next_cursor of the previous page"
// @Success 200 {array} model.Video "ok"
// @Router /feed [get]
func (h *handlers) page(r *stdhttp.Request, in domain.PageInput) (any, error) {
	p, err := h.svc.FetchPage(r.Context(), in.PageSize, in.Cursor)
	if err != nil {
		return nil, err
	}
	return httpkit.Paged(p.Videos, httpkit.Page{
		PageSize:   p.PageSize,
		Count:      len(p.Videos),
		NextCursor: p.Next,
		Exhausted:  p.Next == domain.Exhausted,
	}), nil
}

// @Summary One video
// @Tags Feed
// @Produce json
// @Param id path string true "Video id"
// @Success 200 {object} model.Video "ok"
// @Router /videos/{id} [get]
func (h *handlers) video(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "id"))
}

// @Summary Videos whose caption starts with q
// @Tags Feed
// @Produce json
// @Param q query string true "Caption prefix"
// @Param limit query int false "Max items"
// @Success 200 {array} model.Video "ok"
// @Router /search [get]
func (h *handlers) search(r *stdhttp.Request, in domain.SearchInput) (any, error) {
	return h.svc.Search(r.Context(), in.Q, in.Limit)
}

// @Summary Videos tagged with a hashtag, newest first
// @Tags Feed
// @Produce json
// @Param tag path string true "Hashtag with or without #"
// @Success 200 {array} model.Video "ok"
// @Router /hashtags/{tag} [get]
func (h *handlers) tagged(r *stdhttp.Request, in domain.TagInput) (any, error) {
	return h.svc.ByHashtag(r.Context(), httpkit.Param(r, "tag"), in.Limit)
}
