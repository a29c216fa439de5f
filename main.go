package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/secmon-lab/vigia/pkg/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		slog.Error("vigia exited with error", "error", err)
		os.Exit(1)
	}
}
