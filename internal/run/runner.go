// Package run owns demo playback: it executes a run's steps strictly
// sequentially, holds the run's variable store, and reports progress
// through the event hub and the journal.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/showkit/showrunner/internal/engine"
	"github.com/showkit/showrunner/pkg/api"
	"github.com/showkit/showrunner/pkg/log"
)

type (
	// Journal persists run records for the read API
	Journal interface {
		SaveRun(context.Context, *api.RunRecord) error
		GetRun(context.Context, api.RunID) (*api.RunRecord, error)
		ListRuns(context.Context) ([]*api.RunRecord, error)
	}

	// Archiver receives terminal run records for long-term storage
	Archiver interface {
		Put(context.Context, *api.RunRecord) error
	}

	// Dependencies collects the collaborators a Runner needs. Archiver may
	// be nil when archiving is not configured
	Dependencies struct {
		Executor *engine.Executor
		Hub      *Hub
		Journal  Journal
		Archiver Archiver
	}

	// Runner starts and tracks demo runs. Steps within one run never
	// overlap; distinct runs play concurrently, each with its own
	// variable store
	Runner struct {
		deps   Dependencies
		ctx    context.Context
		cancel context.CancelFunc
		wg     sync.WaitGroup
	}
)

var (
	ErrNoSteps         = errors.New("run has no steps")
	ErrInvalidStep     = errors.New("invalid step")
	ErrRunnerStopped   = errors.New("runner is stopped")
	ErrJournalRequired = errors.New("journal is required")
)

// NewRunner creates a runner from its dependencies
func NewRunner(deps Dependencies) (*Runner, error) {
	if deps.Journal == nil {
		return nil, ErrJournalRequired
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start validates the steps, records the run as pending, and begins
// asynchronous playback. The returned ID can be used to query progress
func (r *Runner) Start(
	steps []*api.Step, settings api.Settings,
) (api.RunID, error) {
	if err := r.ctx.Err(); err != nil {
		return "", ErrRunnerStopped
	}
	if len(steps) == 0 {
		return "", ErrNoSteps
	}
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return "", fmt.Errorf("%w %d: %w", ErrInvalidStep, i, err)
		}
	}

	rec := &api.RunRecord{
		ID:        api.RunID(uuid.NewString()),
		Steps:     steps,
		Settings:  settings,
		Status:    api.RunPending,
		CreatedAt: time.Now(),
	}
	if err := r.deps.Journal.SaveRun(r.ctx, rec); err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.play(rec)
	}()

	return rec.ID, nil
}

// Stop cancels all in-flight runs, including any poll mid-wait, and
// blocks until playback goroutines exit
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

// play executes the run's steps in order. Step n+1 never starts before
// step n has settled, because later steps may read variables bound by
// earlier ones. The first step error halts the run
func (r *Runner) play(rec *api.RunRecord) {
	vars := api.Vars{}

	rec.Status = api.RunRunning
	r.record(rec)
	r.publish(api.Event{Type: api.EventRunStarted, RunID: rec.ID})

	slog.Info("Run started",
		log.RunID(rec.ID),
		slog.Int("steps", len(rec.Steps)))

	for i, step := range rec.Steps {
		r.publish(api.Event{
			Type:      api.EventStepStarted,
			RunID:     rec.ID,
			StepIndex: i,
		})

		res, err := r.deps.Executor.Execute(
			r.ctx, step, &rec.Settings, vars,
		)
		if err != nil {
			r.fail(rec, i, err)
			return
		}

		rec.Results = append(rec.Results, res)
		r.record(rec)
		r.publish(api.Event{
			Type:      api.EventStepCompleted,
			RunID:     rec.ID,
			StepIndex: i,
			Result:    res,
		})
	}

	now := time.Now()
	rec.Status = api.RunCompleted
	rec.FinishedAt = &now
	r.record(rec)
	r.publish(api.Event{Type: api.EventRunCompleted, RunID: rec.ID})
	r.archive(rec)

	slog.Info("Run completed", log.RunID(rec.ID))
}

func (r *Runner) fail(rec *api.RunRecord, stepIndex int, err error) {
	now := time.Now()
	rec.Status = api.RunFailed
	rec.Error = err.Error()
	rec.FinishedAt = &now
	r.record(rec)

	r.publish(api.Event{
		Type:      api.EventStepFailed,
		RunID:     rec.ID,
		StepIndex: stepIndex,
		Error:     err.Error(),
	})
	r.publish(api.Event{
		Type:  api.EventRunFailed,
		RunID: rec.ID,
		Error: err.Error(),
	})
	r.archive(rec)

	slog.Error("Run failed",
		log.RunID(rec.ID),
		log.StepIndex(stepIndex),
		log.Error(err))
}

func (r *Runner) record(rec *api.RunRecord) {
	if err := r.deps.Journal.SaveRun(r.ctx, rec); err != nil {
		slog.Warn("Failed to journal run",
			log.RunID(rec.ID),
			log.Error(err))
	}
}

func (r *Runner) archive(rec *api.RunRecord) {
	if r.deps.Archiver == nil {
		return
	}
	if err := r.deps.Archiver.Put(r.ctx, rec); err != nil {
		slog.Warn("Failed to archive run",
			log.RunID(rec.ID),
			log.Error(err))
	}
}

func (r *Runner) publish(ev api.Event) {
	if r.deps.Hub != nil {
		r.deps.Hub.Publish(ev)
	}
}
