// Package scheduler runs the periodic task-list digest.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/resilience"
	"github.com/sells-group/advisor-cli/internal/scorer"
)

// TaskLister produces the current prioritized task list.
type TaskLister interface {
	TaskList(ctx context.Context, filter scorer.TaskFilter) ([]model.TaskPriorityResult, error)
}

// Digest summarizes one task-list run.
type Digest struct {
	Total  int                        `json:"total"`
	ByTier map[model.Priority]int     `json:"by_tier"`
	Top    []model.TaskPriorityResult `json:"top"`
}

// digestTop is how many of the most urgent clients a digest names.
const digestTop = 5

// digestTimeout bounds one digest run.
const digestTimeout = 2 * time.Minute

// digestRetry rides out a store blip without waiting for the next tick.
var digestRetry = resilience.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 2 * time.Second,
	MaxBackoff:     10 * time.Second,
	OnRetry:        resilience.RetryLogger("task digest"),
}

// Scheduler manages the digest cron job.
type Scheduler struct {
	cron  *cron.Cron
	tasks TaskLister
	ctx   context.Context
	retry resilience.RetryConfig
}

// New creates a Scheduler with second-resolution cron expressions.
func New(ctx context.Context, tasks TaskLister) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		tasks: tasks,
		ctx:   ctx,
		retry: digestRetry,
	}
}

// RegisterDigest schedules the digest. An empty spec registers nothing.
func (s *Scheduler) RegisterDigest(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.digestJob); err != nil {
		return eris.Wrapf(err, "scheduler: register digest %q", spec)
	}
	zap.L().Info("scheduler: digest registered", zap.String("schedule", spec))
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("scheduler: started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("scheduler: stopped")
}

// RunDigest recomputes the full task list and summarizes it. Nothing is
// persisted; every run starts from the store's current state.
func (s *Scheduler) RunDigest(ctx context.Context) (*Digest, error) {
	tasks, err := s.tasks.TaskList(ctx, scorer.TaskFilter{Limit: scorer.NoLimit})
	if err != nil {
		return nil, eris.Wrap(err, "scheduler: digest task list")
	}
	return Summarize(tasks), nil
}

// Summarize counts tasks per tier and keeps the most urgent few. tasks must
// already be ordered by urgency.
func Summarize(tasks []model.TaskPriorityResult) *Digest {
	d := &Digest{
		Total: len(tasks),
		ByTier: map[model.Priority]int{
			model.PriorityHigh:   0,
			model.PriorityMedium: 0,
			model.PriorityLow:    0,
		},
	}
	for _, t := range tasks {
		d.ByTier[t.Priority]++
	}
	n := min(len(tasks), digestTop)
	d.Top = append([]model.TaskPriorityResult(nil), tasks[:n]...)
	return d
}

func (s *Scheduler) digestJob() {
	ctx, cancel := context.WithTimeout(s.ctx, digestTimeout)
	defer cancel()

	d, err := resilience.DoVal(ctx, s.retry, s.RunDigest)
	if err != nil {
		zap.L().Error("scheduler: digest failed", zap.Error(err))
		return
	}

	top := make([]string, 0, len(d.Top))
	for _, t := range d.Top {
		top = append(top, t.ClientID)
	}
	zap.L().Info("scheduler: task digest",
		zap.Int("total", d.Total),
		zap.Int("high", d.ByTier[model.PriorityHigh]),
		zap.Int("medium", d.ByTier[model.PriorityMedium]),
		zap.Int("low", d.ByTier[model.PriorityLow]),
		zap.Strings("top_clients", top),
	)
}
