// Package datapilotctl implements the datapilotctl command against the HTTP
// API: asking questions, listing history and curating training examples.
package datapilotctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	DatasetID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("datapilotctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "DataPilot API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	datasetID := fs.String("dataset-id", defaults.DatasetID, "Dataset to target (server default when empty)")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 60s)")
	limit := fs.Int("limit", 0, "Row limit for list commands (server default when 0)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	method := ""
	path := ""
	var requestBody any
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		method, path = http.MethodPost, "/v1/ask"
		requestBody = map[string]string{"question": question, "dataset_id": strings.TrimSpace(*datasetID)}
	case "history":
		method, path = http.MethodGet, "/v1/history"+listQuery(*datasetID, *limit)
	case "examples":
		method, path = http.MethodGet, "/v1/examples"+listQuery(*datasetID, *limit)
	case "example-delete":
		if fs.NArg() < 2 {
			_, _ = fmt.Fprintln(stderr, "example-delete requires an example id")
			return 2
		}
		method, path = http.MethodDelete, "/v1/examples/"+url.PathEscape(strings.TrimSpace(fs.Arg(1)))
	case "schema":
		method, path = http.MethodGet, "/v1/schema"+listQuery(*datasetID, 0)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, *apiKey, requestBody)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if command == "ask" {
		return writeAskResult(stdout, stderr, responseBody)
	}
	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

type askResult struct {
	Status   string `json:"status"`
	Answer   string `json:"answer"`
	SQL      string `json:"sql"`
	Attempts int    `json:"attempts"`
}

// writeAskResult prints the answer as text rather than raw JSON, with the
// generated SQL after it for anyone who wants to double-check.
func writeAskResult(stdout, stderr io.Writer, raw []byte) int {
	var result askResult
	if err := json.Unmarshal(raw, &result); err != nil {
		_, _ = fmt.Fprintln(stdout, string(raw))
		return 0
	}

	_, _ = fmt.Fprintln(stdout, result.Answer)
	if result.SQL != "" {
		_, _ = fmt.Fprintf(stdout, "\nsql: %s\n", result.SQL)
	}
	if result.Status != "done" {
		_, _ = fmt.Fprintf(stderr, "run ended in status %q after %d attempts\n", result.Status, result.Attempts)
		return 1
	}
	return 0
}

func listQuery(datasetID string, limit int) string {
	values := url.Values{}
	if strings.TrimSpace(datasetID) != "" {
		values.Set("dataset_id", strings.TrimSpace(datasetID))
	}
	if limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func doRequest(ctx context.Context, client *http.Client, method, endpoint, apiKey string, requestBody any) (int, []byte, error) {
	var payload io.Reader
	if requestBody != nil {
		raw, err := json.Marshal(requestBody)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: datapilotctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                 GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                  GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  ask <question...>      POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  history                GET /v1/history")
	_, _ = fmt.Fprintln(w, "  examples               GET /v1/examples")
	_, _ = fmt.Fprintln(w, "  example-delete <id>    DELETE /v1/examples/{id}")
	_, _ = fmt.Fprintln(w, "  schema                 GET /v1/schema")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
