package interfaces

import (
	"context"

	"github.com/secmon-lab/vigia/pkg/domain/model"
)

// ReportReviser rewrites an investigation text according to user feedback
type ReportReviser interface {
	ReviseReport(ctx context.Context, req *model.RevisionRequest) (*model.ReportRevision, error)
}
