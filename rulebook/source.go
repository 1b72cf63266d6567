package rulebook

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/awantoch/promptgate/blob"
	"github.com/awantoch/promptgate/config"
	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/storage"
)

// Source is where the rulebook text lives. Fetch may be slow; the cache
// bounds it with a timeout through ctx.
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Name() string
}

// KVSource reads the rulebook document stored under Key in the KV store.
// A JSON string value is unquoted; any other JSON document is returned raw.
type KVSource struct {
	KV  storage.KV
	Key string
}

func (s *KVSource) Name() string {
	return "kv:" + s.Key
}

func (s *KVSource) Fetch(ctx context.Context) (string, error) {
	raw, err := s.KV.Get(ctx, s.Key)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	return string(raw), nil
}

// BlobSource reads the rulebook from a file:// or s3:// URL.
type BlobSource struct {
	Store blob.BlobStore
	URL   string
}

func (s *BlobSource) Name() string {
	return s.URL
}

func (s *BlobSource) Fetch(ctx context.Context) (string, error) {
	data, err := s.Store.Get(ctx, s.URL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewSourceFromConfig picks the rulebook source named by cfg.Rulebook.Source.
// kv is used by the kv source; blob sources open their own store.
func NewSourceFromConfig(ctx context.Context, cfg *config.Config, kv storage.KV) (Source, error) {
	switch strings.ToLower(cfg.Rulebook.Source) {
	case "", constants.RulebookSourceKV:
		if kv == nil {
			return nil, fmt.Errorf("kv rulebook source requires a kv store")
		}
		key := cfg.Rulebook.Key
		if key == "" {
			key = constants.DefaultRulebookKey
		}
		return &KVSource{KV: kv, Key: key}, nil
	case constants.RulebookSourceBlob:
		if cfg.Rulebook.URL == "" {
			return nil, fmt.Errorf("blob rulebook source requires url")
		}
		store, err := openBlobStore(ctx, cfg.Blob, cfg.Rulebook.URL)
		if err != nil {
			return nil, err
		}
		return &BlobSource{Store: store, URL: cfg.Rulebook.URL}, nil
	default:
		return nil, fmt.Errorf("unsupported rulebook source: %s", cfg.Rulebook.Source)
	}
}

// openBlobStore picks the blob driver from the URL scheme. An s3:// URL
// names its own bucket; the region still comes from config.
func openBlobStore(ctx context.Context, bcfg config.BlobConfig, url string) (blob.BlobStore, error) {
	if strings.HasPrefix(url, "s3://") {
		if bucket, _, ok := strings.Cut(strings.TrimPrefix(url, "s3://"), "/"); ok && bcfg.Bucket == "" {
			bcfg.Bucket = bucket
		}
		return blob.NewS3BlobStore(ctx, bcfg.Bucket, bcfg.Region)
	}
	path, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return nil, fmt.Errorf("unsupported rulebook url: %s", url)
	}
	return blob.NewFilesystemBlobStore(filepath.Dir(path))
}
