package generator

import (
	"context"
	"time"
)

// Model is the provider label attached to every task and result.
type Model string

const (
	ModelGPT    Model = "GPT-5.2"
	ModelClaude Model = "Claude 4.5 Sonnet"
)

func (m Model) valid() bool {
	return m == ModelGPT || m == ModelClaude
}

// Status is the outcome of one task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Applicant is the structured form input for a generation batch.
type Applicant struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Company    string `json:"company"`
	Experience string `json:"experience"`
	Skills     string `json:"skills"`
	Motivation string `json:"motivation"`
}

// Task is one unit of work inside a batch.
type Task struct {
	ID    int
	Model Model
	Run   func(ctx context.Context) (string, error)
}

// Result is what a settled task turns into. On failure Content carries the
// error message instead of generated text.
type Result struct {
	ID      int    `json:"id"`
	Model   Model  `json:"model"`
	Content string `json:"content"`
	Status  Status `json:"status"`
}

// Batch is the replayable record of one streamed batch.
type Batch struct {
	ID        string
	Kind      string
	Size      int
	Results   *Collection
	CreatedAt time.Time
	done      chan struct{}
}

// NewBatch prepares an empty record for a batch of size n.
func NewBatch(id, kind string, n int) *Batch {
	return &Batch{
		ID:        id,
		Kind:      kind,
		Size:      n,
		Results:   NewCollection(),
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Finish marks the batch complete. Calling it twice panics, like closing a channel.
func (b *Batch) Finish() {
	close(b.done)
}

// Done reports whether every task of the batch has been accounted for.
func (b *Batch) Done() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
