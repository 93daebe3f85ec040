package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultPerProvider is the number of versions requested from each text provider.
const DefaultPerProvider = 3

// Reviewer names accepted by Agent.Review.
const (
	ReviewerGPT    = "gpt"
	ReviewerClaude = "claude"
)

// Agent builds batches over the two text providers and runs the single-call
// operations (translate, review).
type Agent struct {
	gpt         LLMClient
	claude      LLMClient
	agg         *Aggregator
	perProvider int
	strictSpans bool
	log         logrus.FieldLogger
}

// AgentOption customises an Agent.
type AgentOption func(*Agent)

func WithPerProvider(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.perProvider = n
		}
	}
}

// WithStrictSpans drops review annotations whose quote is not in the reviewed text.
func WithStrictSpans(strict bool) AgentOption {
	return func(a *Agent) { a.strictSpans = strict }
}

func WithLogger(l logrus.FieldLogger) AgentOption {
	return func(a *Agent) { a.log = l }
}

// WithConcurrencyLimit caps concurrently running tasks per batch.
func WithConcurrencyLimit(n int) AgentOption {
	return func(a *Agent) { a.agg.Limit = n }
}

func NewAgent(gpt, claude LLMClient, opts ...AgentOption) (*Agent, error) {
	if gpt == nil || claude == nil {
		return nil, errors.New("both llm clients are required")
	}
	a := &Agent{
		gpt:         gpt,
		claude:      claude,
		agg:         &Aggregator{},
		perProvider: DefaultPerProvider,
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.agg.Log = a.log
	return a, nil
}

// BatchSize is the number of tasks in every generate or variation batch.
func (a *Agent) BatchSize() int { return 2 * a.perProvider }

// GenerateTasks builds the initial generation batch: GPT versions get ids
// 1..n, Claude versions n+1..2n.
func (a *Agent) GenerateTasks(app Applicant) []Task {
	base := BuildGeneratePrompt(app)
	return a.batch(func(i int) Prompt { return base.WithVersion(i) })
}

// VariationTasks builds a variation batch over an existing letter.
func (a *Agent) VariationTasks(original string) []Task {
	return a.batch(func(i int) Prompt { return BuildVariationPrompt(original, i) })
}

func (a *Agent) batch(build func(i int) Prompt) []Task {
	tasks := make([]Task, 0, a.BatchSize())
	providers := []struct {
		model  Model
		client LLMClient
	}{
		{ModelGPT, a.gpt},
		{ModelClaude, a.claude},
	}
	id := 1
	for _, p := range providers {
		for i := 1; i <= a.perProvider; i++ {
			prompt := build(i)
			client := p.client
			tasks = append(tasks, Task{
				ID:    id,
				Model: p.model,
				Run: func(ctx context.Context) (string, error) {
					return client.Complete(ctx, prompt)
				},
			})
			id++
		}
	}
	return tasks
}

// Stream runs tasks and yields results in completion order.
func (a *Agent) Stream(ctx context.Context, tasks []Task) <-chan Result {
	return a.agg.Stream(ctx, tasks)
}

// Collect runs tasks and returns results ordered by identity.
func (a *Agent) Collect(ctx context.Context, tasks []Task) []Result {
	return a.agg.Collect(ctx, tasks)
}

// Translate renders a Korean letter into business English.
func (a *Agent) Translate(ctx context.Context, text string) (string, error) {
	out, err := a.gpt.Complete(ctx, BuildTranslatePrompt(text))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" || out == fallbackContent {
		return "번역 실패", nil
	}
	return PostProcess(out), nil
}

// Review asks the chosen provider for a ReviewReport about content. An empty
// reviewer means GPT.
func (a *Agent) Review(ctx context.Context, content, reviewer string) (ReviewReport, error) {
	var client LLMClient
	switch reviewer {
	case "", ReviewerGPT:
		client = a.gpt
	case ReviewerClaude:
		client = a.claude
	default:
		return ReviewReport{}, fmt.Errorf("unknown reviewer %q", reviewer)
	}
	raw, err := client.Complete(ctx, BuildReviewPrompt(content))
	if err != nil {
		return ReviewReport{}, err
	}
	report, err := ParseReview(raw)
	if err != nil {
		return ReviewReport{}, err
	}
	if unmatched := report.UnmatchedSpans(content); len(unmatched) > 0 {
		a.log.WithFields(logrus.Fields{
			"reviewer":  reviewer,
			"unmatched": len(unmatched),
			"strict":    a.strictSpans,
		}).Warn("review quotes not found in reviewed text")
		if a.strictSpans {
			report = report.DropUnmatched(content)
		}
	}
	return report, nil
}
