// Package http provides http transport for uploads
package http

import (
	stdhttp "net/http"

	cmedia "popreel/internal/core/media"
	"popreel/internal/modkit/httpkit"
	"popreel/internal/platform/net/http/bind"
	"popreel/internal/platform/net/middleware"
	"popreel/internal/services/uploads/domain"
	svc "popreel/internal/services/uploads/service"
)

// uploadLimit leaves room for the form fields around the largest accepted file
const uploadLimit = cmedia.MaxBytes + 1<<20

// Register mounts the upload endpoint under /videos
func Register(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.PostForm(pr, "/", bind.MultipartOptions{MaxBytes: uploadLimit, File: "file"}, h.publish)
	})
}

type handlers struct{ svc svc.Service }

// @Summary Upload a video
// @Description Multipart form with the clip in "file" and its declared caption, duration (seconds), width and height
// @Tags Videos
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Clip"
// @Param caption formData string false "Caption, #tags are indexed"
// @Param duration formData number true "Duration in seconds"
// @Param width formData int true "Width in pixels"
// @Param height formData int true "Height in pixels"
// @Success 201 {object} model.Video "published"
// @Failure 422 {object} map[string]any "rejected"
// @Router /videos [post]
func (h *handlers) publish(r *stdhttp.Request, in domain.PublishInput, f bind.File) (any, error) {
	who, err := httpkit.Author(r)
	if err != nil {
		return nil, err
	}
	clip := domain.Clip{Body: f, Filename: f.Name, ContentType: f.ContentType, Size: f.Size}
	v, err := h.svc.Publish(r.Context(), who, in, clip)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(v), nil
}
