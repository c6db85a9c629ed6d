package wire

import (
	"bytes"
	"io"
)

var (
	dataPrefix   = []byte("data:")
	doneSentinel = []byte("[DONE]")
)

// nextEventPayload returns the concatenated data payload of the next
// event-stream record. Per the SSE framing, consecutive `data:` lines belong
// to one record and a blank line ends it. The underlying bufio reader keeps
// any unterminated trailing fragment buffered until more transport bytes
// arrive, so delta boundaries falling mid-line are never dropped.
func (d *Decoder) nextEventPayload() ([]byte, error) {
	var dataLines [][]byte
	for {
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			// Flush whatever was accumulated before EOF.
			line = bytes.TrimRight(line, "\r\n")
			if len(line) > 0 {
				dataLines = appendDataLine(dataLines, line)
			}
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if len(dataLines) == 0 {
				continue
			}
			return bytes.Join(dataLines, []byte("\n")), nil
		}

		// Comment line.
		if line[0] == ':' {
			continue
		}
		dataLines = appendDataLine(dataLines, line)
	}
}

// appendDataLine keeps only `data:` fields; other fields (event, id, retry)
// carry no delta content.
func appendDataLine(dst [][]byte, line []byte) [][]byte {
	if !bytes.HasPrefix(line, dataPrefix) {
		return dst
	}
	val := line[len(dataPrefix):]
	if len(val) > 0 && val[0] == ' ' {
		val = val[1:]
	}
	return append(dst, append([]byte(nil), val...))
}
