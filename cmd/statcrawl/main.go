package main

import (
	"context"
	"log/slog"
	"statcrawl/cmd/statcrawl/commands"
	"statcrawl/lib/osutil"
	"statcrawl/lib/telemetry"
)

func main() {
	ctx, stop := osutil.SignalContext(context.Background())
	defer stop()

	tel, err := telemetry.SetupFromEnv(ctx, "statcrawl")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
