package main

import (
	"context"
	"os"

	"meterassist-backend/cmd/meterassist/cmd"
	"meterassist-backend/lib/serviceutil"
	"meterassist-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "meterassist")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(context.Background())
	}

	cmd.Execute(ctx)
}
