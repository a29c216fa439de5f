package model

import (
	"strings"

	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Attachment represents a file associated with an incident
type Attachment struct {
	ID   types.AttachmentID   `json:"id"`
	Name string               `json:"name"`
	URL  string               `json:"url"` // Session reference to the bytes held by the blob store
	Type types.AttachmentType `json:"type"`
}

// AttachmentFile is a raw uploaded file before it becomes an Attachment
type AttachmentFile struct {
	Name      string
	MediaType string // Declared media type, e.g. "application/pdf"
	Data      []byte
}

// ClassifyMediaType derives the attachment type from a declared media type
func ClassifyMediaType(mediaType string) types.AttachmentType {
	switch {
	case strings.Contains(mediaType, "image"):
		return types.AttachmentTypeImage
	case strings.Contains(mediaType, "pdf"):
		return types.AttachmentTypePDF
	default:
		return types.AttachmentTypeDoc
	}
}

// Blob is attachment content read back from a blob store
type Blob struct {
	Key       string
	MediaType string
	Data      []byte
}
