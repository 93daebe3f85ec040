// Package client talks to a running studio server and rebuilds streamed
// batches on the caller's side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cover_letter_studio/generator"
	"cover_letter_studio/render"
	"cover_letter_studio/stream"
)

// TransportError is a failure before any frame was read: connection errors or
// a non-2xx status.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	return fmt.Sprintf("transport: status %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 6 * time.Minute},
	}
}

// BatchOutcome is the terminal state of a streamed batch.
type BatchOutcome struct {
	BatchID   string
	Results   []generator.Result
	Skipped   int
	Truncated bool
}

// Generate streams an initial generation batch. onResult, if set, sees each
// new result once, in arrival order.
func (c *Client) Generate(ctx context.Context, app generator.Applicant, onResult func(generator.Result)) (BatchOutcome, error) {
	return c.streamBatch(ctx, "/api/generate", app, onResult)
}

// Variation streams a variation batch over an existing letter.
func (c *Client) Variation(ctx context.Context, original string, onResult func(generator.Result)) (BatchOutcome, error) {
	body := map[string]string{"originalContent": original}
	return c.streamBatch(ctx, "/api/variation", body, onResult)
}

func (c *Client) streamBatch(ctx context.Context, path string, body any, onResult func(generator.Result)) (BatchOutcome, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return BatchOutcome{}, err
	}
	defer resp.Body.Close()

	out := BatchOutcome{BatchID: resp.Header.Get("X-Batch-ID")}
	coll := generator.NewCollection()
	out.Skipped, out.Truncated, err = Consume(resp.Body, coll, onResult)
	out.Results = coll.Sorted()
	if err != nil {
		return out, &TransportError{Err: err}
	}
	return out, nil
}

// Consume reads frames from r into coll until the sentinel. Malformed frames
// are skipped and counted; frames for identities already in coll are dropped.
// A body that ends without the sentinel reports truncated=true and no error.
func Consume(r io.Reader, coll *generator.Collection, onResult func(generator.Result)) (skipped int, truncated bool, err error) {
	rd := stream.NewReader(r)
	for {
		payload, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return skipped, false, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return skipped, true, nil
		}
		if err != nil {
			return skipped, false, err
		}
		res, err := generator.DecodeResult(payload)
		if err != nil {
			skipped++
			continue
		}
		if coll.Add(res) && onResult != nil {
			onResult(res)
		}
	}
}

// Translate returns the English rendering of text.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.call(ctx, "/api/translate", map[string]string{"text": text}, &out); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

// Review returns the critique of content; reviewer may be empty.
func (c *Client) Review(ctx context.Context, content, reviewer string) (generator.ReviewReport, error) {
	var out struct {
		Review generator.ReviewReport `json:"review"`
	}
	body := map[string]string{"content": content, "reviewer": reviewer}
	if err := c.call(ctx, "/api/review", body, &out); err != nil {
		return generator.ReviewReport{}, err
	}
	return out.Review, nil
}

// Rendered is a letter converted to HTML, split at its section markers.
type Rendered struct {
	HTML     string           `json:"html"`
	Sections []render.Section `json:"sections"`
}

// Render asks the server to turn a letter into sectioned HTML.
func (c *Client) Render(ctx context.Context, content string) (Rendered, error) {
	var out Rendered
	err := c.call(ctx, "/api/render", map[string]string{"content": content}, &out)
	return out, err
}

// BatchRecord is the server's record of a streamed batch.
type BatchRecord struct {
	BatchID string             `json:"batchId"`
	Kind    string             `json:"kind"`
	Size    int                `json:"size"`
	Done    bool               `json:"done"`
	Results []generator.Result `json:"results"`
}

// Replay fetches what the server collected for batchID. Tasks that were still
// running when the original stream was cut show up as cancellation failures.
func (c *Client) Replay(ctx context.Context, batchID string) (BatchRecord, error) {
	if batchID == "" {
		return BatchRecord{}, errors.New("replay: empty batch id")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/batches/"+batchID, nil)
	if err != nil {
		return BatchRecord{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return BatchRecord{}, err
	}
	defer resp.Body.Close()
	var out BatchRecord
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return BatchRecord{}, fmt.Errorf("decode replay: %w", err)
	}
	return out, nil
}

// Recover fills a truncated outcome from the server's replay record. It is a
// no-op for complete outcomes; results already received are kept.
func (c *Client) Recover(ctx context.Context, o *BatchOutcome) error {
	if !o.Truncated || o.BatchID == "" {
		return nil
	}
	rep, err := c.Replay(ctx, o.BatchID)
	if err != nil {
		return err
	}
	coll := generator.NewCollection()
	for _, r := range o.Results {
		coll.Add(r)
	}
	for _, r := range rep.Results {
		coll.Add(r)
	}
	o.Results = coll.Sorted()
	o.Truncated = !rep.Done || len(o.Results) < rep.Size
	return nil
}

func (c *Client) call(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// do sends req and turns a connection failure or non-2xx status into a TransportError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}
