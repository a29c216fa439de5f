package blob

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
)

// GCS implements BlobStore with a Google Cloud Storage bucket. Blob URLs
// still point at the HTTP controller, which streams objects from the bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	prefix    string
	urlPrefix string
}

// NewGCS creates a new GCS blob store
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	ctxlog.From(ctx).Info("GCS blob store initialized",
		"bucket", bucket,
		"prefix", prefix,
	)

	return &GCS{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		urlPrefix: DefaultURLPrefix,
	}, nil
}

func (g *GCS) object(key string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(path.Join(g.prefix, key))
}

// Put uploads data as an object
func (g *GCS) Put(ctx context.Context, key, mediaType string, data []byte) (string, error) {
	if key == "" {
		return "", goerr.New("blob key is empty")
	}

	w := g.object(key).NewWriter(ctx)
	w.ContentType = mediaType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write object", goerr.V("key", key), goerr.V("bucket", g.bucket))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object", goerr.V("key", key), goerr.V("bucket", g.bucket))
	}

	return buildURL(g.urlPrefix, key), nil
}

// Get downloads an object
func (g *GCS) Get(ctx context.Context, key string) (*model.Blob, error) {
	r, err := g.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(model.ErrBlobNotFound, "failed to get blob", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("key", key), goerr.V("bucket", g.bucket))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("key", key), goerr.V("bucket", g.bucket))
	}

	return &model.Blob{
		Key:       key,
		MediaType: r.Attrs.ContentType,
		Data:      data,
	}, nil
}

// Release deletes the object
func (g *GCS) Release(ctx context.Context, key string) error {
	if err := g.object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to delete object", goerr.V("key", key), goerr.V("bucket", g.bucket))
	}
	return nil
}

// Close closes the storage client
func (g *GCS) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ interfaces.BlobStore = (*GCS)(nil) // Compile-time interface check
