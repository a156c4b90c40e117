// Command toolplan runs a single model prompt through the parse,
// validate, execute pipeline and prints the step results as JSON, or the
// validation result as JSON when the plan fails validation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Mindburn-Labs/toolplan/internal/config"
	"github.com/Mindburn-Labs/toolplan/internal/modelclient"
	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
	"github.com/Mindburn-Labs/toolplan/pkg/toolplan"
)

func main() {
	os.Exit(Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing: it never calls os.Exit itself.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, stderr)

	prompt, err := io.ReadAll(stdin)
	if err != nil {
		slog.Error("toolplan: failed to read prompt", "error", err)
		return 1
	}
	if len(prompt) == 0 {
		slog.Error("toolplan: no prompt supplied on stdin")
		return 1
	}

	client := modelclient.New(cfg.ModelServiceURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ModelTimeout+10*time.Second)
	defer cancel()

	modelText, err := client.Complete(ctx, string(prompt))
	if err != nil {
		slog.Error("toolplan: model completion failed", "error", err)
		return 1
	}

	sdk := toolplan.New(demoCatalog(), toolplan.WithMaxWaveConcurrency(cfg.ExecutorMaxConcurrency))
	results, validation, err := sdk.Run(ctx, modelText)
	if err != nil {
		slog.Error("toolplan: planning failed", "error", err)
		return 1
	}
	if !validation.Valid {
		slog.Warn("toolplan: plan failed validation", "errorCount", len(validation.Errors))
		return encodeJSON(stdout, validation)
	}

	slog.Info("toolplan: plan executed", "stepCount", len(results))
	return encodeJSON(stdout, results)
}

func encodeJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "toolplan: encode output: %v\n", err)
		return 1
	}
	return 0
}

func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// demoCatalog registers a pair of illustrative tools so the CLI has
// something to plan against out of the box.
func demoCatalog() *toolplan.Catalog {
	catalog := toolplan.NewCatalog()
	_ = catalog.Register(contracts.Tool{
		Name:         "getWeather",
		Description:  "Returns the current weather for a city",
		InputSchema:  `{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`,
		OutputSchema: `{"type":"object","properties":{"temperature":{"type":"number"},"conditions":{"type":"string"}},"required":["temperature","conditions"]}`,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			city, _ := args["city"].(string)
			return map[string]any{"temperature": 18.0, "conditions": fmt.Sprintf("clear over %s", city)}, nil
		},
	})
	_ = catalog.Register(contracts.Tool{
		Name:         "sendEmail",
		Description:  "Sends an email with a plain-text body",
		InputSchema:  `{"type":"object","properties":{"body":{"type":"string"}},"required":["body"]}`,
		OutputSchema: `{"type":"object","properties":{"sent":{"type":"boolean"}},"required":["sent"]}`,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"sent": true}, nil
		},
	})
	return catalog
}
