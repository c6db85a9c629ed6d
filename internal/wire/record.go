package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// chunkShape covers both content shapes carried over streaming framings:
// the chat-completions shape (nested choices/delta or choices/message) and
// the flat/native shape ({"content": ...} or {"message":{"content": ...}}).
type chunkShape struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Content *string `json:"content"`
	Message struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// decodeRecord extracts the delta text from one framed record. ok=false
// means a well-formed record with nothing to contribute (skipped silently);
// a non-nil error means the record is malformed and counts against the
// stream's malformed budget.
func decodeRecord(f Framing, payload []byte) (Delta, bool, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return Delta{}, false, nil
	}

	// The end sentinel is a reserved payload, never parsed as JSON.
	// Line-delimited streams end on transport closure only.
	if f == FramingEventStream && bytes.Equal(payload, doneSentinel) {
		return Delta{Terminal: true}, true, nil
	}

	var chunk chunkShape
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Delta{}, false, fmt.Errorf("decode %s record: %w", f, err)
	}

	if len(chunk.Choices) > 0 {
		first := chunk.Choices[0]
		if first.Delta.Content != nil {
			return Delta{Text: *first.Delta.Content}, *first.Delta.Content != "", nil
		}
		if first.Message.Content != nil {
			return Delta{Text: *first.Message.Content}, *first.Message.Content != "", nil
		}
		return Delta{}, false, nil
	}
	if chunk.Content != nil {
		return Delta{Text: *chunk.Content}, *chunk.Content != "", nil
	}
	if chunk.Message.Content != nil {
		return Delta{Text: *chunk.Message.Content}, *chunk.Message.Content != "", nil
	}

	// Well-formed JSON carrying no recognized content field (keepalives,
	// usage-only records): contribute nothing.
	return Delta{}, false, nil
}
