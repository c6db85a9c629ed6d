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

// BlackbirdProvider talks to the first-party hosted chat endpoint. The
// response is an event-stream whose data records carry either the nested
// choice/delta shape or a flat content field, ended by a [DONE] sentinel.
type BlackbirdProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
	tier     string
	model    string
}

func NewBlackbirdProvider(endpoint, apiKey, tier, model string) *BlackbirdProvider {
	return &BlackbirdProvider{
		client:   &http.Client{Timeout: 5 * time.Minute},
		endpoint: endpoint,
		apiKey:   apiKey,
		tier:     tier,
		model:    model,
	}
}

func (p *BlackbirdProvider) Name() string    { return "blackbird" }
func (p *BlackbirdProvider) Streaming() bool { return true }

type blackbirdRequest struct {
	Tier     string    `json:"tier,omitempty"`
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

func (p *BlackbirdProvider) Chat(ctx context.Context, req *ChatRequest) (<-chan Event, error) {
	body, err := json.Marshal(blackbirdRequest{
		Tier:     p.tier,
		Model:    p.model,
		Messages: wireMessages(req),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode blackbird request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build blackbird request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

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

	ch := make(chan Event, 16)
	go decodeBody(p.Name(), resp.Body, wire.FramingEventStream, ch)
	return ch, nil
}

// decodeBody pumps a response body through the framing decoder and emits
// unified events until the terminal marker, a decode failure, or transport
// closure. Shared by every hand-wired provider.
func decodeBody(name string, body io.ReadCloser, framing wire.Framing, ch chan<- Event) {
	defer close(ch)
	defer body.Close()

	dec := wire.NewDecoder(framing, body)
	for {
		delta, err := dec.Next()
		if err == io.EOF {
			// Transport closure is a valid terminal marker for line-delimited
			// and buffered framings.
			ch <- Event{Type: EventDone}
			return
		}
		if err != nil {
			if _, ok := err.(*wire.ProtocolError); ok {
				ch <- Event{Type: EventError, Err: err}
			} else {
				ch <- Event{Type: EventError, Err: &TransportError{Provider: name, Err: err}}
			}
			return
		}
		if delta.Text != "" {
			ch <- Event{Type: EventTextDelta, TextDelta: delta.Text}
		}
		if delta.Terminal {
			ch <- Event{Type: EventDone}
			return
		}
	}
}
