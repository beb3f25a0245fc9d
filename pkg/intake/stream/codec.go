package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"legal-intake-be/internal/pkg/logger"
)

var ErrUnknownEventType = errors.New("unknown event type")

const maxFrameBytes = 1 << 20

// Encode renders one "data: <json>\n\n" frame.
func Encode(ev Event) ([]byte, error) {
	if !ev.Type.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}

func WriteEvent(w io.Writer, ev Event) error {
	frame, err := Encode(ev)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Decoder reads frames written by Encode. Frames without a recognized type
// are dropped with a warning.
type Decoder struct {
	scanner *bufio.Scanner
	logger  logger.ILogger
}

func NewDecoder(r io.Reader, log logger.ILogger) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	return &Decoder{scanner: scanner, logger: log}
}

// Next returns the next valid event, or io.EOF.
func (d *Decoder) Next() (Event, error) {
	for {
		data, err := d.nextFrame()
		if err != nil {
			return Event{}, err
		}
		ev, err := decodeFrame(data)
		if err != nil {
			d.logger.Warn("STREAM", "Dropping frame", map[string]interface{}{
				"error": err.Error(),
				"frame": truncate(string(data), 200),
			})
			continue
		}
		return ev, nil
	}
}

func (d *Decoder) nextFrame() ([]byte, error) {
	var buf bytes.Buffer
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if buf.Len() > 0 {
				return buf.Bytes(), nil
			}
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	if buf.Len() > 0 {
		return buf.Bytes(), nil
	}
	return nil, io.EOF
}

func decodeFrame(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("invalid frame: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrUnknownEventType)
	}
	if !ev.Type.Known() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
	return ev, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
