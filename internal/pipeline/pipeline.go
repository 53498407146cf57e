package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wplinks/internal/model"
)

// Step defines the interface that all pipeline steps implement.
// Steps run in sequence, each mutating the accumulated site report.
type Step interface {
	// Do executes the step against the report.
	// A returned error is fatal for this site; recoverable problems
	// should be logged and folded into the report instead.
	Do(ctx context.Context, report *model.SiteReport) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order against one site's report.
type Pipeline struct {
	// steps is the ordered step list.
	steps []Step

	// logger receives execution diagnostics.
	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	// The default is to stop: a failed discovery leaves nothing for the
	// later steps to work on.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails.
// Failed steps are recorded on the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline; add steps with AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs all steps in sequence against the report.
//
// Execute is the top of a per-site run: a panic inside a step is caught
// here, recorded on the report, and returned as an error so one broken
// site cannot take down a multi-site batch.
func (p *Pipeline) Execute(ctx context.Context, report *model.SiteReport) (err error) {
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during site analysis: %v", r)
			p.logger.Error("site analysis panicked",
				"site", report.Site,
				"panic", r,
			)
			report.SetError(err)
		}
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"site", report.Site,
				"reason", ctx.Err(),
			)
			report.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"site", report.Site,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", report.Site,
				"error", err,
			)
			report.SetError(err)
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"site", report.Site,
			)
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}
