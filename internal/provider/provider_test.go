package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blackbird-ai/blackbird/internal/wire"
)

// collect drains an event channel into text and a terminal event.
func collect(t *testing.T, ch <-chan Event) (string, Event) {
	t.Helper()
	var b strings.Builder
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed without a terminal event")
			}
			switch ev.Type {
			case EventTextDelta:
				b.WriteString(ev.TextDelta)
			case EventDone, EventError:
				return b.String(), ev
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestNewChatRequest(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "make a timer"},
		{Role: RoleAssistant, Content: "<!DOCTYPE html>..."},
	}
	req := NewChatRequest(history, "make it count down")

	if req.SystemPrompt == "" {
		t.Error("SystemPrompt is empty")
	}
	if !strings.Contains(req.SystemPrompt, "[[app_tags:") {
		t.Error("SystemPrompt does not mention the tag marker")
	}
	if len(req.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(req.Messages))
	}
	last := req.Messages[2]
	if last.Role != RoleUser || last.Content != "make it count down" {
		t.Errorf("last message = %+v, want new user prompt", last)
	}
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
	}
}

func TestWireMessages_PreambleLeads(t *testing.T) {
	req := NewChatRequest(nil, "hello")
	msgs := wireMessages(req)
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != req.SystemPrompt {
		t.Errorf("first message should carry the system preamble, got %+v", msgs[0])
	}
	if msgs[1].Content != "hello" {
		t.Errorf("second message = %+v, want user prompt", msgs[1])
	}
}

func TestBlackbirdProvider_Chat(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody blackbirdRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewBlackbirdProvider(srv.URL, "test-key", "ultra", "gpt-oss-120b")
	ch, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	text, final := collect(t, ch)
	if final.Type != EventDone {
		t.Fatalf("terminal event = %v (err=%v), want done", final.Type, final.Err)
	}
	if text != "Hello world" {
		t.Errorf("text = %q, want %q", text, "Hello world")
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if !gotBody.Stream {
		t.Error("request did not ask for a stream")
	}
	if gotBody.Tier != "ultra" || gotBody.Model != "gpt-oss-120b" {
		t.Errorf("tier/model = %q/%q", gotBody.Tier, gotBody.Model)
	}
	if len(gotBody.Messages) == 0 || gotBody.Messages[0].Role != RoleUser {
		t.Errorf("messages = %+v, want leading preamble message", gotBody.Messages)
	}
}

func TestBlackbirdProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewBlackbirdProvider(srv.URL, "k", "", "")
	_, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Chat() error = %v, want *TransportError", err)
	}
	if terr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", terr.Status)
	}
	if !strings.Contains(terr.Error(), "quota exceeded") {
		t.Errorf("Error() = %q, want body detail", terr.Error())
	}
}

func TestBlackbirdProvider_MalformedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// More broken records than the decoder tolerates.
		for i := 0; i < 10; i++ {
			w.Write([]byte("data: {not json\n\n"))
		}
	}))
	defer srv.Close()

	p := NewBlackbirdProvider(srv.URL, "", "", "")
	ch, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	_, final := collect(t, ch)
	if final.Type != EventError {
		t.Fatalf("terminal event = %v, want error", final.Type)
	}
	var perr *wire.ProtocolError
	if !errors.As(final.Err, &perr) {
		t.Errorf("Err = %v, want *wire.ProtocolError", final.Err)
	}
}

func TestOllamaProvider_Chat(t *testing.T) {
	var gotBody ollamaRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"He"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":"llo"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "gpt-oss:20b")
	ch, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	text, final := collect(t, ch)
	if final.Type != EventDone {
		t.Fatalf("terminal event = %v (err=%v), want done", final.Type, final.Err)
	}
	if text != "Hello" {
		t.Errorf("text = %q, want %q", text, "Hello")
	}
	if gotBody.Model != "gpt-oss:20b" {
		t.Errorf("model = %q", gotBody.Model)
	}
	if !gotBody.Stream {
		t.Error("request did not ask for a stream")
	}
}

func TestOllamaProvider_DefaultEndpoint(t *testing.T) {
	p := NewOllamaProvider("", "m")
	if p.endpoint != defaultOllamaEndpoint {
		t.Errorf("endpoint = %q, want %q", p.endpoint, defaultOllamaEndpoint)
	}
}

func TestCustomProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":"<!DOCTYPE html><html></html>"}`))
	}))
	defer srv.Close()

	p := NewCustomProvider(srv.URL)
	if p.Streaming() {
		t.Error("Streaming() = true, want false")
	}

	ch, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	text, final := collect(t, ch)
	if final.Type != EventDone {
		t.Fatalf("terminal event = %v (err=%v), want done", final.Type, final.Err)
	}
	if text != "<!DOCTYPE html><html></html>" {
		t.Errorf("text = %q", text)
	}
}

func TestCustomProvider_RawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text answer"))
	}))
	defer srv.Close()

	p := NewCustomProvider(srv.URL)
	ch, err := p.Chat(context.Background(), NewChatRequest(nil, "hi"))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	text, final := collect(t, ch)
	if final.Type != EventDone {
		t.Fatalf("terminal event = %v, want done", final.Type)
	}
	if text != "plain text answer" {
		t.Errorf("text = %q", text)
	}
}
