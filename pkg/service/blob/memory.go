// Package blob provides storage for attachment bytes. Every stored blob is
// referenced by a URL that stays valid until the blob is released.
package blob

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/domain/model"
)

// DefaultURLPrefix is the path under which the HTTP controller serves blobs
const DefaultURLPrefix = "/api/attachments/"

// Memory implements BlobStore with process memory. It is the session-scoped
// equivalent of an object URL: data lives until released or process exit.
type Memory struct {
	mu        sync.RWMutex
	blobs     map[string]*model.Blob
	urlPrefix string
}

// MemoryOption configures Memory
type MemoryOption func(*Memory)

// WithURLPrefix sets the prefix used to build blob URLs
func WithURLPrefix(prefix string) MemoryOption {
	return func(m *Memory) {
		m.urlPrefix = prefix
	}
}

// NewMemory creates a new in-memory blob store
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		blobs:     make(map[string]*model.Blob),
		urlPrefix: DefaultURLPrefix,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put stores data under key
func (m *Memory) Put(ctx context.Context, key, mediaType string, data []byte) (string, error) {
	if key == "" {
		return "", goerr.New("blob key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = &model.Blob{
		Key:       key,
		MediaType: mediaType,
		Data:      slices.Clone(data),
	}

	return buildURL(m.urlPrefix, key), nil
}

// Get returns the blob stored under key
func (m *Memory) Get(ctx context.Context, key string) (*model.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[key]
	if !ok {
		return nil, goerr.Wrap(model.ErrBlobNotFound, "failed to get blob", goerr.V("key", key))
	}

	return &model.Blob{
		Key:       b.Key,
		MediaType: b.MediaType,
		Data:      slices.Clone(b.Data),
	}, nil
}

// Release frees the blob stored under key
func (m *Memory) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, key)
	return nil
}

// Len returns the number of blobs currently held
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func buildURL(prefix, key string) string {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + url.PathEscape(key)
}

var _ interfaces.BlobStore = (*Memory)(nil) // Compile-time interface check
