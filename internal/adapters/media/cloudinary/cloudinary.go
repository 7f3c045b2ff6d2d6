// Package cloudinary uploads clips to Cloudinary's unsigned upload endpoint
package cloudinary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"popreel/internal/adapters/media"
	"popreel/internal/platform/config"
	perr "popreel/internal/platform/errors"
	"popreel/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.cloudinary.com"
	defaultTimeout   = 2 * time.Minute
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
)

// Options configures the Client
type Options struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
	Timeout      time.Duration

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// FromConfig reads MEDIA_CLOUDINARY_*
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("MEDIA_CLOUDINARY_")
	return Options{
		BaseURL:      c.MayString("BASE_URL", baseURLDefault),
		CloudName:    c.MustString("CLOUD_NAME"),
		UploadPreset: c.MustString("UPLOAD_PRESET"),
		Timeout:      c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries:   c.MayInt("MAX_RETRIES", defaultMaxRetry),
		RetryBase:    c.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}

// Client is a minimal Cloudinary video upload client
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
}

var _ media.Origin = (*Client)(nil)

// New creates a new Client with sane defaults
func New(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("cloudinary"),
		sleep: time.Sleep,
	}
}

type uploadResponse struct {
	SecureURL    string  `json:"secure_url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     float64 `json:"duration"`
	Format       string  `json:"format"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Message      string  `json:"message"`
	Error        struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u uploadResponse) message() string {
	if u.Error.Message != "" {
		return u.Error.Message
	}
	return u.Message
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.opts.BaseURL, "/") + "/v1_1/" + c.opts.CloudName + "/video/upload"
}

// Upload posts the clip as multipart form data, retrying 429 and 5xx with backoff
func (c *Client) Upload(ctx context.Context, obj media.Object) (media.Asset, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return media.Asset{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "cloudinary upload cancelled")
		}
		if _, err := obj.Body.Seek(0, io.SeekStart); err != nil {
			return media.Asset{}, perr.Wrap(err, perr.ErrorCodeUnknown, "rewind upload body")
		}

		status, body, err := c.post(ctx, obj)
		if err != nil {
			if !c.shouldRetry(attempts) {
				return media.Asset{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "cloudinary upload failed")
			}
			back := c.backoff(attempts)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("cloudinary transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		var out uploadResponse
		_ = json.Unmarshal(body, &out)

		switch {
		case status >= 200 && status < 300:
			if out.SecureURL == "" {
				return media.Asset{}, perr.Newf(perr.ErrorCodeUnavailable, "cloudinary response has no secure_url")
			}
			thumb := out.ThumbnailURL
			if thumb == "" {
				thumb = out.SecureURL
			}
			return media.Asset{
				URL:       out.SecureURL,
				Thumbnail: thumb,
				Duration:  int64(math.Round(out.Duration)),
				Format:    out.Format,
				Width:     out.Width,
				Height:    out.Height,
			}, nil

		case status == http.StatusTooManyRequests || status >= 500:
			if !c.shouldRetry(attempts) {
				code := perr.ErrorCodeUnavailable
				if status == http.StatusTooManyRequests {
					code = perr.ErrorCodeTooManyRequests
				}
				return media.Asset{}, perr.Newf(code, "cloudinary: %s", orStatus(out.message(), status))
			}
			back := c.backoff(attempts)
			c.log.Warn().Int("status", status).Dur("retry_in", back).Int("attempt", attempts).Msg("cloudinary transient error retrying")
			c.sleep(back)
			attempts++
			continue

		default:
			return media.Asset{}, perr.Newf(perr.ErrorCodeUnavailable, "cloudinary: %s", orStatus(out.message(), status))
		}
	}
}

// post streams the multipart body through a pipe so large clips are not buffered
func (c *Client) post(ctx context.Context, obj media.Object) (int, []byte, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, obj, c.opts.UploadPreset)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return 0, nil, err
	}
	defer resp.Body.Close()
	_ = pr.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Int64("bytes", obj.Meta.Size).
		Msg("cloudinary upload response")
	return resp.StatusCode, body, nil
}

func writeForm(mw *multipart.Writer, obj media.Object, preset string) error {
	name := obj.Meta.Filename
	if name == "" {
		name = "upload"
	}
	fw, err := mw.CreateFormFile("file", path.Base(name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, obj.Body); err != nil {
		return err
	}
	if err := mw.WriteField("upload_preset", preset); err != nil {
		return err
	}
	return mw.WriteField("resource_type", "video")
}

func orStatus(msg string, status int) string {
	if msg != "" {
		return msg
	}
	return "upload failed with status " + strconv.Itoa(status)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if max := 30 * time.Second; d > max || d <= 0 {
		d = max
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

// String is for logs
func (c *Client) String() string { return fmt.Sprintf("cloudinary(%s)", c.opts.CloudName) }
