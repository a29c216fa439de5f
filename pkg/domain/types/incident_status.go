package types

// IncidentStatus represents the workflow stage of an incident report
type IncidentStatus string

const (
	IncidentStatusDraft        IncidentStatus = "draft"
	IncidentStatusPreliminary  IncidentStatus = "preliminary"
	IncidentStatusDone         IncidentStatus = "done"
	IncidentStatusSentToClient IncidentStatus = "sent to client"
)

// AllIncidentStatuses returns every valid status in workflow order
func AllIncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusDraft,
		IncidentStatusPreliminary,
		IncidentStatusDone,
		IncidentStatusSentToClient,
	}
}

// String returns the string representation of the status
func (s IncidentStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusDraft, IncidentStatusPreliminary, IncidentStatusDone, IncidentStatusSentToClient:
		return true
	default:
		return false
	}
}

// ReportType represents the kind of report being drafted
type ReportType string

const (
	ReportTypeQuality ReportType = "quality"
	ReportTypeSafety  ReportType = "safety"
)

// String returns the string representation of the report type
func (t ReportType) String() string {
	return string(t)
}

// IsValid checks if the report type is valid. Empty is accepted and means unspecified.
func (t ReportType) IsValid() bool {
	switch t {
	case "", ReportTypeQuality, ReportTypeSafety:
		return true
	default:
		return false
	}
}

// AttachmentType represents the coarse kind of an attached file
type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypePDF   AttachmentType = "pdf"
	AttachmentTypeDoc   AttachmentType = "doc"
)

// String returns the string representation of the attachment type
func (t AttachmentType) String() string {
	return string(t)
}
