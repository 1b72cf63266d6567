package blob

import (
	"context"
	"errors"
	"strings"

	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/utils"
)

// BlobStore is the interface for pluggable blob storage backends. URLs are
// scheme-qualified (file://, s3://) and round-trip through Put and Get.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mime, filename string) (url string, err error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// ErrNotFound is returned by Get when the URL names no object.
var ErrNotFound = errors.New("blob not found")

// MaxObjectSize caps how much of one object Get reads.
const MaxObjectSize = 8 << 20

// NewDefaultBlobStore returns a BlobStore based on cfg, or a
// FilesystemBlobStore in the default directory if the driver is unset.
func NewDefaultBlobStore(ctx context.Context, cfg config.BlobConfig) (BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", constants.BlobDriverFilesystem:
		dir := constants.DefaultBlobDir
		if cfg.Directory != "" {
			dir = cfg.Directory
		}
		return NewFilesystemBlobStore(dir)
	case constants.BlobDriverS3:
		return NewS3BlobStore(ctx, cfg.Bucket, cfg.Region)
	default:
		return nil, utils.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}
