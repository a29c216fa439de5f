package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for domain operations
var (
	ErrIncidentNotFound = goerr.New("incident not found")
	ErrBlobNotFound     = goerr.New("blob not found")
	ErrStoreClosed      = goerr.New("incident store accessed outside its lifetime")
	ErrReportConflict   = goerr.New("report changed during revision")
)

// Error tags for categorization
var (
	ErrTagInvalidStatus          = goerr.NewTag("invalid_status")
	ErrTagInvalidInput           = goerr.NewTag("invalid_input")
	ErrTagEmptyFeedback          = goerr.NewTag("empty_feedback")
	ErrTagInsufficientFlightData = goerr.NewTag("insufficient_flight_data")
)
