// Package stream implements the line-delimited event stream used to push batch
// results to the browser: one `data: <json>` frame per result, then a
// `data: [DONE]` sentinel.
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	dataPrefix = "data: "
	Sentinel   = "[DONE]"
)

// ErrClosed is returned for writes after the sentinel frame.
var ErrClosed = errors.New("stream: sentinel already written")

// Writer frames values onto an HTTP response. It is not safe for concurrent
// use; a single goroutine must own it.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

// NewWriter prepares w for streaming and writes the response headers.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("stream: response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteJSON writes one data frame holding the JSON encoding of v.
func (s *Writer) WriteJSON(v any) error {
	if s.closed {
		return ErrClosed
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream: encode frame: %w", err)
	}
	return s.write(dataPrefix + string(payload) + "\n\n")
}

// Ping writes a comment line; consumers ignore it.
func (s *Writer) Ping() error {
	if s.closed {
		return ErrClosed
	}
	return s.write(": ping\n\n")
}

// Done writes the sentinel frame. Only the first call writes.
func (s *Writer) Done() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.write(dataPrefix + Sentinel + "\n\n")
}

func (s *Writer) write(frame string) error {
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Reader splits a stream body into frame payloads regardless of how the
// bytes were chunked on the wire.
type Reader struct {
	sc   *bufio.Scanner
	done bool
}

// maxFrame bounds a single line; generated letters stay far below it.
const maxFrame = 4 << 20

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrame)
	return &Reader{sc: sc}
}

// Next returns the next data payload. It returns io.EOF after the sentinel and
// io.ErrUnexpectedEOF when the body ends without one.
func (r *Reader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	for r.sc.Scan() {
		line := bytes.TrimRight(r.sc.Bytes(), "\r")
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		payload := bytes.TrimSpace(line[len("data:"):])
		if string(payload) == Sentinel {
			r.done = true
			return nil, io.EOF
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}
