// Package transform applies an ordered list of SQL transformation steps
// that materialize derived tables from the normalized base tables.
package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/logger"
)

// Status is the lifecycle state of one transformation step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Step is one named transformation. The script body is opaque; the runner
// only enforces the declared pre- and postconditions around it.
type Step struct {
	Seq      int
	Name     string
	Requires []string
	Produces []string
	Script   string
}

// StepResult records the outcome of one step.
type StepResult struct {
	Step      Step
	Status    Status
	Reason    string
	RowCounts map[string]int64
	Err       error
}

// PlanEntry describes a step's readiness without executing it.
type PlanEntry struct {
	Step    Step
	Missing []string
	Ready   bool
}

// Runner executes steps strictly in ascending sequence order. Steps run
// one at a time; later steps may depend on tables created by earlier ones.
type Runner struct {
	store *database.Store
	log   *logger.Logger
	steps []Step
}

// NewRunner creates a runner over the given steps. Steps are sorted by
// sequence number; declaration order does not matter.
func NewRunner(store *database.Store, log *logger.Logger, steps []Step) *Runner {
	ordered := make([]Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })
	return &Runner{store: store, log: log, steps: ordered}
}

// Steps returns the steps in execution order.
func (r *Runner) Steps() []Step {
	return r.steps
}

// Validate checks the step list for duplicate sequence numbers, duplicate
// produced tables, and forward references: a step may only require tables
// produced by strictly lower-numbered steps (or base tables produced by
// no step at all).
func (r *Runner) Validate() error {
	seen := make(map[int]string)
	producedBy := make(map[string]Step)

	for _, step := range r.steps {
		if prev, ok := seen[step.Seq]; ok {
			return fmt.Errorf("steps %q and %q share sequence number %d", prev, step.Name, step.Seq)
		}
		seen[step.Seq] = step.Name
		if len(step.Produces) == 0 {
			return fmt.Errorf("step %q declares no produced tables", step.Name)
		}
		for _, table := range step.Produces {
			if prev, ok := producedBy[table]; ok {
				return fmt.Errorf("table %q produced by both %q and %q", table, prev.Name, step.Name)
			}
			producedBy[table] = step
		}
	}

	for _, step := range r.steps {
		for _, required := range step.Requires {
			producer, ok := producedBy[required]
			if !ok {
				continue // base table, checked against the store at run time
			}
			if producer.Seq >= step.Seq {
				return fmt.Errorf("step %q (seq %d) requires %q produced by %q (seq %d): forward reference",
					step.Name, step.Seq, required, producer.Name, producer.Seq)
			}
		}
	}
	return nil
}

// Plan reports each step's readiness against the current store contents
// without executing anything. Tables declared by earlier steps count as
// available even though they do not exist yet.
func (r *Runner) Plan(ctx context.Context) ([]PlanEntry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	declared := make(map[string]bool)
	entries := make([]PlanEntry, 0, len(r.steps))
	for _, step := range r.steps {
		var missing []string
		for _, required := range step.Requires {
			if declared[required] {
				continue
			}
			exists, err := r.store.TableExists(ctx, required)
			if err != nil {
				return nil, fmt.Errorf("failed to plan step %s: %w", step.Name, err)
			}
			if !exists {
				missing = append(missing, required)
			}
		}
		entries = append(entries, PlanEntry{Step: step, Missing: missing, Ready: len(missing) == 0})
		for _, table := range step.Produces {
			declared[table] = true
		}
	}
	return entries, nil
}

// Run executes every step in order with per-step skip/fail semantics.
// A step whose required tables are absent is skipped; a step whose script
// errors or whose declared outputs fail to materialize is failed, and its
// outputs stay unavailable so dependents skip while independents proceed.
// Only a store-level error aborts the run.
func (r *Runner) Run(ctx context.Context) ([]StepResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	unavailable := make(map[string]string) // table -> step that failed to produce it
	results := make([]StepResult, 0, len(r.steps))

	for _, step := range r.steps {
		log := r.log.WithStep(step.Name)

		result, err := r.runStep(ctx, step, unavailable, log)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if result.Status != StatusSucceeded {
			for _, table := range step.Produces {
				unavailable[table] = step.Name
			}
		}
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step Step, unavailable map[string]string, log *logger.Logger) (StepResult, error) {
	result := StepResult{Step: step, Status: StatusPending}

	var missing []string
	for _, required := range step.Requires {
		if producer, blocked := unavailable[required]; blocked {
			missing = append(missing, fmt.Sprintf("%s (from %s)", required, producer))
			continue
		}
		exists, err := r.store.TableExists(ctx, required)
		if err != nil {
			return result, fmt.Errorf("failed to check required table %s: %w", required, err)
		}
		if !exists {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		result.Status = StatusSkipped
		result.Reason = "missing required tables: " + strings.Join(missing, ", ")
		log.Infow("step skipped", "reason", result.Reason)
		return result, nil
	}

	result.Status = StatusRunning
	log.Infow("step running", "seq", step.Seq)

	if err := r.store.ExecScript(ctx, step.Script); err != nil {
		result.Status = StatusFailed
		result.Reason = "execution error"
		result.Err = err
		log.Errorw("step failed", "error", err)
		return result, nil
	}

	rowCounts, postErr := r.checkPostconditions(ctx, step)
	if postErr != nil {
		result.Status = StatusFailed
		result.Reason = "postcondition failure"
		result.Err = postErr
		log.Errorw("step postcondition failed", "error", postErr)
		return result, nil
	}

	result.Status = StatusSucceeded
	result.RowCounts = rowCounts
	log.Infow("step succeeded", "tables", len(rowCounts))
	return result, nil
}

// checkPostconditions verifies every declared output exists with a
// parseable row count.
func (r *Runner) checkPostconditions(ctx context.Context, step Step) (map[string]int64, error) {
	rowCounts := make(map[string]int64, len(step.Produces))
	for _, table := range step.Produces {
		exists, err := r.store.TableExists(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to verify output table %s: %w", table, err)
		}
		if !exists {
			return nil, fmt.Errorf("declared output table %s does not exist after execution", table)
		}
		count, err := r.store.RowCount(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("output table %s has no parseable row count: %w", table, err)
		}
		rowCounts[table] = count
	}
	return rowCounts, nil
}
