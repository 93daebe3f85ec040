package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Aggregator runs a batch of independent tasks concurrently. A task failure
// becomes an error Result; it never aborts its siblings.
type Aggregator struct {
	// Limit caps concurrently running tasks; 0 runs the whole batch at once.
	Limit int
	Log   logrus.FieldLogger
}

// Stream starts every task and returns a channel that yields each Result as
// soon as its task settles, in completion order. The channel is closed after
// exactly len(tasks) results. Successful content passes through PostProcess,
// so it arrives trimmed and without a wrapping code fence.
func (a *Aggregator) Stream(ctx context.Context, tasks []Task) <-chan Result {
	out := make(chan Result, len(tasks))
	var g errgroup.Group
	if a.Limit > 0 {
		g.SetLimit(a.Limit)
	}
	go func() {
		for _, t := range tasks {
			g.Go(func() error {
				out <- a.run(ctx, t)
				return nil
			})
		}
		_ = g.Wait()
		close(out)
	}()
	return out
}

// Collect waits for every task and returns the results ordered by identity.
func (a *Aggregator) Collect(ctx context.Context, tasks []Task) []Result {
	coll := NewCollection()
	for r := range a.Stream(ctx, tasks) {
		coll.Add(r)
	}
	return coll.Sorted()
}

func (a *Aggregator) run(ctx context.Context, t Task) (res Result) {
	start := time.Now()
	res = Result{ID: t.ID, Model: t.Model}
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusError
			res.Content = failureContent(fmt.Errorf("panic: %v", p))
		}
		a.logger().WithFields(logrus.Fields{
			"task":    t.ID,
			"model":   t.Model,
			"status":  res.Status,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("task settled")
	}()

	content, err := t.Run(ctx)
	if err != nil {
		res.Status = StatusError
		res.Content = failureContent(err)
		return res
	}
	res.Status = StatusSuccess
	res.Content = PostProcess(content)
	return res
}

func (a *Aggregator) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

func failureContent(err error) string {
	msg := "알 수 없는 오류"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return "오류 발생: " + msg
}
