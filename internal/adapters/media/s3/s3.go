// Package s3 stores clips in an S3 compatible bucket through minio-go
package s3

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"popreel/internal/adapters/media"
	cmedia "popreel/internal/core/media"
	"popreel/internal/platform/config"
	perr "popreel/internal/platform/errors"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config for the bucket; PublicURL is the base clients fetch objects from
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
	PublicURL string
	// Ensure creates the bucket at startup when it is missing
	Ensure bool
}

// FromConfig reads MEDIA_S3_*
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("MEDIA_S3_")
	return Config{
		Endpoint:  c.MustString("ENDPOINT"),
		Region:    c.MayString("REGION", "us-east-1"),
		Bucket:    c.MayString("BUCKET", "popreel"),
		AccessKey: c.MustString("ACCESS_KEY"),
		SecretKey: c.MustString("SECRET_KEY"),
		UseSSL:    c.MayBool("USE_SSL", true),
		PathStyle: c.MayBool("PATH_STYLE", false),
		PublicURL: c.MustString("PUBLIC_URL"),
		Ensure:    c.MayBool("ENSURE_BUCKET", true),
	}
}

// Storage is a media.Origin over one bucket
type Storage struct {
	cl     *minio.Client
	bucket string
	region string
	public string
	newID  func() string
}

var _ media.Origin = (*Storage)(nil)

// New connects a client; it does not touch the network until first use
func New(cfg Config) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 client")
	}
	return &Storage{
		cl:     cl,
		bucket: cfg.Bucket,
		region: cfg.Region,
		public: strings.TrimRight(cfg.PublicURL, "/"),
		newID:  uuid.NewString,
	}, nil
}

// EnsureBucket creates the bucket when missing
func (s *Storage) EnsureBucket(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 bucket check")
	}
	if ok {
		return nil
	}
	if err := s.cl.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 make bucket")
	}
	return nil
}

// Ping checks the bucket is reachable
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.cl.BucketExists(ctx, s.bucket)
	return err
}

// Key is the object name for a new clip
func Key(id, ext string) string { return "videos/" + id + ext }

// Upload puts the clip under videos/<uuid><ext>
// the bucket does not transcode, so the asset echoes the declared metadata
func (s *Storage) Upload(ctx context.Context, obj media.Object) (media.Asset, error) {
	ext := cmedia.Ext(obj.Meta.Filename, obj.Meta.ContentType)
	key := Key(s.newID(), ext)
	ct := obj.Meta.ContentType
	if ct == "" {
		ct = "video/mp4"
	}
	if _, err := obj.Body.Seek(0, io.SeekStart); err != nil {
		return media.Asset{}, perr.Wrap(err, perr.ErrorCodeUnknown, "rewind upload body")
	}
	if _, err := s.cl.PutObject(ctx, s.bucket, key, obj.Body, obj.Meta.Size, minio.PutObjectOptions{ContentType: ct}); err != nil {
		return media.Asset{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "s3 put object")
	}
	return AssetFor(s.public, key, obj.Meta), nil
}

// AssetFor builds the asset a stored object is served as
func AssetFor(publicURL, key string, m cmedia.Meta) media.Asset {
	u := strings.TrimRight(publicURL, "/") + "/" + key
	return media.Asset{
		URL:       u,
		Thumbnail: u,
		Duration:  int64(m.Duration.Round(time.Second).Seconds()),
		Format:    strings.TrimPrefix(path.Ext(key), "."),
		Width:     m.Width,
		Height:    m.Height,
	}
}
