package bind

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	perr "popreel/internal/platform/errors"

	"github.com/go-playground/form/v4"
)

// MultipartOptions controls multipart parsing
type MultipartOptions struct {
	// MaxBytes caps the whole request body; 0 means no cap
	MaxBytes int64
	// MaxMemory is how much of the form is held in memory before spilling to disk
	MaxMemory int64
	// File is the form field carrying the upload
	File string
}

// File is the uploaded part; the caller closes it
type File struct {
	multipart.File
	Name        string
	ContentType string
	Size        int64
}

// Multipart parses a multipart form, decodes its values into T using `form` tags,
// validates T and opens the file part named by o.File
func Multipart[T any](r *http.Request, o MultipartOptions) (T, File, error) {
	var zero T
	if o.MaxMemory <= 0 {
		o.MaxMemory = 32 << 20
	}
	if o.File == "" {
		o.File = "file"
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return zero, File{}, perr.InvalidArgf("expected multipart/form-data")
	}
	if o.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, o.MaxBytes)
	}
	if err := r.ParseMultipartForm(o.MaxMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return zero, File{}, perr.Validationf(o.File, "upload is larger than %d bytes", tooBig.Limit)
		}
		return zero, File{}, perr.InvalidArgf("invalid multipart form: %v", err)
	}

	var dst T
	if err := Get().Form.Decode(&dst, r.MultipartForm.Value); err != nil {
		field := ""
		var de form.DecodeErrors
		if errors.As(err, &de) {
			for k := range de {
				field = k
				break
			}
		}
		return zero, File{}, perr.WithField(perr.InvalidArgf("invalid form field %s", field), field)
	}
	if err := validate(dst); err != nil {
		return zero, File{}, err
	}

	f, hdr, err := r.FormFile(o.File)
	if err != nil {
		return zero, File{}, perr.Validationf(o.File, "%s is required", o.File)
	}
	return dst, File{File: f, Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Size: hdr.Size}, nil
}
