package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/wplinks/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.SiteReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.SiteReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if len(p.StepNames()) != 0 {
			t.Errorf("expected 0 steps, got %d", len(p.StepNames()))
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddSteps tests step registration and ordering.
func TestPipelineAddSteps(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(
		&mockStep{name: "first"},
		&mockStep{name: "second"},
		&mockStep{name: "third"},
	)

	names := p.StepNames()
	expected := []string{"first", "second", "third"}
	if len(names) != len(expected) {
		t.Fatalf("got %d steps, expected %d", len(names), len(expected))
	}
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

// TestPipelineExecute tests pipeline execution semantics.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.SiteReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(record("one"), record("two"), record("three"))

		report := model.NewSiteReport("example", "https://example.com")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{"one", "two", "three"}
		for i, name := range expected {
			if order[i] != name {
				t.Errorf("execution %d: got %q, expected %q", i, order[i], name)
			}
		}
		if len(report.PerformedSteps) != 3 {
			t.Errorf("got %d performed steps, expected 3", len(report.PerformedSteps))
		}
		if report.Elapsed <= 0 {
			t.Error("expected positive elapsed time")
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.SiteReport) error {
			return boom
		}}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		report := model.NewSiteReport("example", "https://example.com")
		err := p.Execute(context.Background(), report)

		if !errors.Is(err, boom) {
			t.Errorf("got error %v, expected boom", err)
		}
		if after.callCount != 0 {
			t.Error("step after failure must not run")
		}
		if !errors.Is(report.Error, boom) {
			t.Error("expected error recorded on report")
		}
	})

	t.Run("continues after error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.SiteReport) error {
			return errors.New("boom")
		}}
		after := &mockStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		report := model.NewSiteReport("example", "https://example.com")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error with continueOnError: %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected step after failure to run")
		}
	})

	t.Run("recovers from step panic", func(t *testing.T) {
		t.Parallel()

		panicking := &mockStep{name: "panicking", doFunc: func(context.Context, *model.SiteReport) error {
			panic("unexpected condition")
		}}

		p := New()
		p.AddSteps(panicking)

		report := model.NewSiteReport("example", "https://example.com")
		err := p.Execute(context.Background(), report)

		if err == nil {
			t.Fatal("expected panic to surface as error")
		}
		if report.Error == nil || report.ErrorMessage == "" {
			t.Error("expected panic recorded on report")
		}
	})

	t.Run("cancelled context stops execution", func(t *testing.T) {
		t.Parallel()

		step := &mockStep{name: "never"}

		p := New()
		p.AddSteps(step)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := model.NewSiteReport("example", "https://example.com")
		err := p.Execute(ctx, report)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("got error %v, expected context.Canceled", err)
		}
		if step.callCount != 0 {
			t.Error("step must not run after cancellation")
		}
	})
}
