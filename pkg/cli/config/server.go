package config

import (
	"log/slog"
	"time"

	"github.com/secmon-lab/vigia/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr        string
	FrontendURL string
	Seed        bool
	ReplyDelay  time.Duration
	LookupDelay time.Duration
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("VIGIA_ADDR"),
			Destination: &s.Addr,
		},
		&cli.StringFlag{
			Name:        "frontend-url",
			Usage:       "Public URL of the web UI, used for links in notifications",
			Sources:     cli.EnvVars("VIGIA_FRONTEND_URL"),
			Destination: &s.FrontendURL,
		},
		&cli.BoolFlag{
			Name:        "seed",
			Usage:       "Load demonstration incidents at startup",
			Category:    "Reports",
			Value:       true,
			Sources:     cli.EnvVars("VIGIA_SEED"),
			Destination: &s.Seed,
		},
		&cli.DurationFlag{
			Name:        "assistant-delay",
			Usage:       "Delay before the report assistant replies",
			Category:    "Reports",
			Value:       usecase.DefaultReplyDelay,
			Sources:     cli.EnvVars("VIGIA_ASSISTANT_DELAY"),
			Destination: &s.ReplyDelay,
		},
		&cli.DurationFlag{
			Name:        "flight-lookup-delay",
			Usage:       "Delay before flight data is filled in",
			Category:    "Reports",
			Value:       usecase.DefaultLookupDelay,
			Sources:     cli.EnvVars("VIGIA_FLIGHT_LOOKUP_DELAY"),
			Destination: &s.LookupDelay,
		},
	}
}

// LogValue returns structured log value
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.String("frontendURL", s.FrontendURL),
		slog.Bool("seed", s.Seed),
		slog.Duration("replyDelay", s.ReplyDelay),
		slog.Duration("lookupDelay", s.LookupDelay),
	)
}
