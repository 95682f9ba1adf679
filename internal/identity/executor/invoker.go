package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	id "selfid/pkg/domain"
)

// HTTPInvoker forwards execution calls to an outbound gateway over HTTP.
// The gateway owns delivery to the actual target; a non-2xx response means
// the call failed.
type HTTPInvoker struct {
	endpoint string
	client   *http.Client
}

// NewHTTPInvoker builds an invoker posting to the given gateway endpoint.
func NewHTTPInvoker(endpoint string) *HTTPInvoker {
	return &HTTPInvoker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type invokePayload struct {
	Target  string `json:"target"`
	Value   uint64 `json:"value"`
	Payload []byte `json:"payload"`
}

func (i *HTTPInvoker) Invoke(ctx context.Context, target id.Address, value uint64, payload []byte) error {
	body, err := json.Marshal(invokePayload{Target: string(target), Value: value, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode invoke payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("invoke call returned status %d", resp.StatusCode)
	}
	return nil
}

// LogInvoker records calls without side effects, for deployments that have
// no outbound gateway configured.
type LogInvoker struct {
	logger *slog.Logger
}

func NewLogInvoker(logger *slog.Logger) *LogInvoker {
	return &LogInvoker{logger: logger}
}

func (i *LogInvoker) Invoke(ctx context.Context, target id.Address, value uint64, payload []byte) error {
	i.logger.InfoContext(ctx, "execution call",
		"target", target,
		"value", value,
		"payload_bytes", len(payload),
	)
	return nil
}
