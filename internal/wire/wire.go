// Package wire decodes raw provider transport bytes into ordered text deltas.
// Three framings are supported, chosen once when the provider is constructed:
// event-stream (SSE), line-delimited JSON, and buffered single-shot. All of
// them surface the same Delta sequence so downstream code never inspects the
// provider kind per chunk.
package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Framing identifies the wire framing of a provider response body.
type Framing int

const (
	// FramingEventStream: `field: value` records separated by blank lines,
	// `[DONE]` data payload ends the stream.
	FramingEventStream Framing = iota

	// FramingLines: one JSON record per newline-terminated line, stream ends
	// on transport closure.
	FramingLines

	// FramingBuffered: the entire body is one response, delivered as a
	// single terminal delta.
	FramingBuffered
)

func (f Framing) String() string {
	switch f {
	case FramingEventStream:
		return "event-stream"
	case FramingLines:
		return "lines"
	case FramingBuffered:
		return "buffered"
	default:
		return fmt.Sprintf("framing(%d)", int(f))
	}
}

// Delta is one incremental text fragment of a streamed response.
// Terminal marks the explicit end-of-stream record; its Text may be empty.
type Delta struct {
	Text     string
	Terminal bool
}

// maxMalformedRecords bounds how many undecodable records a single stream
// may contain before the whole stream is treated as broken.
const maxMalformedRecords = 8

// ProtocolError reports a stream whose malformed-record budget was exceeded.
type ProtocolError struct {
	Framing   Framing
	Malformed int
	Err       error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s stream produced %d malformed records: %v", e.Framing, e.Malformed, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Decoder incrementally parses a response body into Deltas.
// Next returns io.EOF once the body is exhausted. A Delta with Terminal set
// signals an explicit end marker; callers should stop reading after it.
type Decoder struct {
	framing   Framing
	r         *bufio.Reader
	malformed int
	lastErr   error
	done      bool
}

// NewDecoder wraps r with the decoding strategy for the given framing.
func NewDecoder(f Framing, r io.Reader) *Decoder {
	return &Decoder{framing: f, r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next delta. Malformed records are skipped; once the
// malformed budget is exceeded Next returns a *ProtocolError.
func (d *Decoder) Next() (Delta, error) {
	if d.done {
		return Delta{}, io.EOF
	}
	for {
		var (
			payload []byte
			err     error
		)
		switch d.framing {
		case FramingEventStream:
			payload, err = d.nextEventPayload()
		case FramingLines:
			payload, err = d.nextLine()
		case FramingBuffered:
			return d.decodeBuffered()
		}
		if err != nil {
			d.done = true
			return Delta{}, err
		}

		delta, ok, decErr := decodeRecord(d.framing, payload)
		if decErr != nil {
			d.malformed++
			d.lastErr = decErr
			if d.malformed > maxMalformedRecords {
				d.done = true
				return Delta{}, &ProtocolError{Framing: d.framing, Malformed: d.malformed, Err: d.lastErr}
			}
			continue
		}
		if !ok {
			continue
		}
		if delta.Terminal {
			d.done = true
		}
		return delta, nil
	}
}

// nextLine returns the next non-empty line with the trailing newline (and any
// carriage return) stripped. An unterminated trailing line at EOF is still
// returned, never dropped.
func (d *Decoder) nextLine() ([]byte, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if err != nil {
			if len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
}

// decodeBuffered consumes the whole body as one record.
func (d *Decoder) decodeBuffered() (Delta, error) {
	d.done = true
	body, err := io.ReadAll(d.r)
	if err != nil {
		return Delta{}, err
	}
	var parsed struct {
		Content *string `json:"content"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Content != nil {
		return Delta{Text: *parsed.Content, Terminal: true}, nil
	}
	// Not the expected envelope: the raw body is the content.
	return Delta{Text: string(body), Terminal: true}, nil
}
