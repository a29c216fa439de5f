package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IncidentID represents an incident identifier
type IncidentID string

// String returns the string representation
func (id IncidentID) String() string {
	return string(id)
}

// Validate checks if the incident ID is valid (non-empty)
func (id IncidentID) Validate() error {
	if id == "" {
		return goerr.New("incident ID cannot be empty")
	}
	return nil
}

// NewIncidentID creates a new IncidentID using UUID v7
func NewIncidentID() (IncidentID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate incident ID")
	}
	return IncidentID(id.String()), nil
}

// AttachmentID represents an attachment identifier, unique within its incident
type AttachmentID string

// String returns the string representation
func (id AttachmentID) String() string {
	return string(id)
}

// NewAttachmentID derives the attachment ID from its parent incident and position
func NewAttachmentID(incidentID IncidentID, index int) AttachmentID {
	return AttachmentID(fmt.Sprintf("%s-%d", incidentID, index))
}

// ManualID represents a reference manual identifier
type ManualID string

// String returns the string representation
func (id ManualID) String() string {
	return string(id)
}

// ChatRole represents the author of an assistant chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// String returns the string representation
func (r ChatRole) String() string {
	return string(r)
}
