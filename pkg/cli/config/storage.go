package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/interfaces"
	"github.com/secmon-lab/vigia/pkg/service/blob"
	"github.com/urfave/cli/v3"
)

// Storage holds attachment blob storage configuration
type Storage struct {
	Bucket string
	Prefix string
}

// Flags returns CLI flags for Storage configuration
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for attachments (kept in memory if not set)",
			Category:    "Storage",
			Sources:     cli.EnvVars("VIGIA_STORAGE_BUCKET"),
			Destination: &s.Bucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix for attachments",
			Category:    "Storage",
			Value:       "attachments/",
			Sources:     cli.EnvVars("VIGIA_STORAGE_PREFIX"),
			Destination: &s.Prefix,
		},
	}
}

// Configure returns the attachment blob store and a function closing it
func (s *Storage) Configure(ctx context.Context) (interfaces.BlobStore, func() error, error) {
	if !s.IsConfigured() {
		ctxlog.From(ctx).Warn("Storage bucket not configured, attachments are kept in memory")
		return blob.NewMemory(), func() error { return nil }, nil
	}

	gcs, err := blob.NewGCS(ctx, s.Bucket, s.Prefix)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to init cloud storage",
			goerr.V("bucket", s.Bucket))
	}
	return gcs, gcs.Close, nil
}

// IsConfigured reports whether a bucket is set
func (s *Storage) IsConfigured() bool {
	return s.Bucket != ""
}

// LogValue returns structured log value
func (s Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", s.Bucket),
		slog.String("prefix", s.Prefix),
	)
}
