package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/datapilot/datapilot/internal/cli/datapilotctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("DATAPILOT_CLI_TIMEOUT")), 60*time.Second)
	options := datapilotctl.Options{
		BaseURL:   envOr("DATAPILOT_API_URL", "http://localhost:8080"),
		APIKey:    strings.TrimSpace(os.Getenv("DATAPILOT_API_KEY")),
		DatasetID: strings.TrimSpace(os.Getenv("DATAPILOT_DATASET_ID")),
		Timeout:   timeout,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	code := datapilotctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid DATAPILOT_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
