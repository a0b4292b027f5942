package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"minerpro-backend/internal/llm"
)

const (
	dataPrefix = "data: "
	doneFrame  = "[DONE]"
)

type decodeState int

const (
	stateAwaitingFrame decodeState = iota
	stateBufferingPartial
	stateDone
	stateErrored
)

type streamChunk struct {
	Choices []struct {
		Delta        llm.Message `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamDecoder re-assembles `data: <json>` SSE frames from an upstream
// body. A frame whose JSON does not yet parse is kept buffered until more
// bytes arrive; data is never discarded on a partial read. `data: [DONE]`
// or upstream close terminates the stream.
type streamDecoder struct {
	src   io.Reader
	buf   []byte
	state decodeState
	err   error
}

func newStreamDecoder(src io.Reader) *streamDecoder {
	return &streamDecoder{src: src}
}

// Next returns the next non-empty text delta, io.EOF on normal
// termination, or a classified error.
func (d *streamDecoder) Next() (string, error) {
	for {
		switch d.state {
		case stateDone:
			return "", io.EOF
		case stateErrored:
			return "", d.err
		}

		if line, ok := d.takeLine(); ok {
			delta, emitted, err := d.decodeLine(line)
			if err != nil {
				d.state = stateErrored
				d.err = err
				return "", err
			}
			if emitted {
				return delta, nil
			}
			continue
		}

		if err := d.fill(); err != nil {
			// Upstream close without [DONE] is a normal termination;
			// whatever is buffered can no longer complete into a frame.
			if err == io.EOF {
				d.state = stateDone
				return "", io.EOF
			}
			d.state = stateErrored
			d.err = fmt.Errorf("%w: read stream: %v", llm.ErrUpstreamFailed, err)
			return "", d.err
		}
	}
}

// takeLine pops one newline-terminated line off the buffer.
func (d *streamDecoder) takeLine() (string, bool) {
	idx := -1
	for i, b := range d.buf {
		if b == '\n' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	line := strings.TrimRight(string(d.buf[:idx]), "\r")
	d.buf = d.buf[idx+1:]
	return line, true
}

func (d *streamDecoder) fill() error {
	chunk := make([]byte, 4096)
	n, err := d.src.Read(chunk)
	if n > 0 {
		d.buf = append(d.buf, chunk[:n]...)
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

// decodeLine processes one complete line. A data frame with malformed
// JSON is pushed back onto the buffer and the decoder waits for more
// bytes; the missing tail of the frame is still in flight.
func (d *streamDecoder) decodeLine(line string) (string, bool, error) {
	if d.state == stateAwaitingFrame {
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			return "", false, nil
		}
	}

	payload := strings.TrimPrefix(line, dataPrefix)
	if payload == doneFrame {
		d.state = stateDone
		return "", false, nil
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		d.state = stateBufferingPartial
		d.buf = append([]byte(line), d.buf...)
		return "", false, nil
	}
	d.state = stateAwaitingFrame

	if chunk.Error != nil {
		return "", false, fmt.Errorf("%w: %s", llm.ErrUpstreamFailed, chunk.Error.Message)
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	choice := chunk.Choices[0]
	if choice.FinishReason != "" && choice.Delta.Content == "" {
		d.state = stateDone
		return "", false, nil
	}
	return choice.Delta.Content, choice.Delta.Content != "", nil
}
