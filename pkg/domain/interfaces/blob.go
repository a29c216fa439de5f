package interfaces

import (
	"context"

	"github.com/secmon-lab/vigia/pkg/domain/model"
)

// BlobStore holds attachment bytes and hands out session URLs referencing them
type BlobStore interface {
	// Put stores the data under key and returns the URL referencing it
	Put(ctx context.Context, key, mediaType string, data []byte) (string, error)
	// Get returns model.ErrBlobNotFound (wrapped) for unknown or released keys
	Get(ctx context.Context, key string) (*model.Blob, error)
	// Release frees the data held under key. Unknown keys are ignored.
	Release(ctx context.Context, key string) error
}
