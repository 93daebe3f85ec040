package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Collection is the result set of one batch: unique by identity, append-only,
// ordered by identity on read. It is safe for concurrent use.
type Collection struct {
	mu      sync.Mutex
	results map[int]Result
}

func NewCollection() *Collection {
	return &Collection{results: make(map[int]Result)}
}

// Add stores r unless a result with the same identity is already present.
// It reports whether r was stored.
func (c *Collection) Add(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.results[r.ID]; ok {
		return false
	}
	c.results[r.ID] = r
	return true
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Sorted returns a copy of the results in ascending identity order.
func (c *Collection) Sorted() []Result {
	c.mu.Lock()
	out := make([]Result, 0, len(c.results))
	for _, r := range c.results {
		out = append(out, r)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reset empties the collection for the next batch.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[int]Result)
}

// ParseError reports a payload that could not be turned into a typed value.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeResult parses one frame payload. Unknown models, unknown statuses and
// non-positive identities are rejected rather than defaulted.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, &ParseError{What: "result", Err: err}
	}
	if r.ID < 1 {
		return Result{}, &ParseError{What: "result", Err: fmt.Errorf("invalid id %d", r.ID)}
	}
	if !r.Model.valid() {
		return Result{}, &ParseError{What: "result", Err: fmt.Errorf("unknown model %q", r.Model)}
	}
	if r.Status != StatusSuccess && r.Status != StatusError {
		return Result{}, &ParseError{What: "result", Err: fmt.Errorf("unknown status %q", r.Status)}
	}
	return r, nil
}
