package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blackbird-ai/blackbird/internal/wire"
)

// CustomProvider posts the conversation to a user-supplied endpoint that
// answers with a single buffered JSON `{content}` document (or raw text).
// It has no streaming mode: the whole response is delivered through the
// same event channel as exactly one terminal delta.
type CustomProvider struct {
	client   *http.Client
	endpoint string
}

func NewCustomProvider(endpoint string) *CustomProvider {
	return &CustomProvider{
		client:   &http.Client{Timeout: 5 * time.Minute},
		endpoint: endpoint,
	}
}

func (p *CustomProvider) Name() string    { return "custom" }
func (p *CustomProvider) Streaming() bool { return false }

type customRequest struct {
	Messages []Message `json:"messages"`
}

func (p *CustomProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	body, err := json.Marshal(customRequest{Messages: wireMessages(req)})
	if err != nil {
		return nil, fmt.Errorf("encode custom request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build custom request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: p.Name(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", bytes.TrimSpace(detail)),
		}
	}

	ch := make(chan Event, 2)
	go decodeBody(p.Name(), resp.Body, wire.FramingBuffered, ch)
	return ch, nil
}
