// Package matrix expands job definitions into one job per matrix combination.
package matrix

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/engine/expr"
	"go.trai.ch/zerr"
)

// Combinations returns the Cartesian product of the strategy axes in
// declaration order, with exclude and include entries applied.
func Combinations(s domain.Strategy) ([]domain.Combination, error) {
	axisNames := make(map[string]bool, len(s.Axes))
	for _, axis := range s.Axes {
		if len(axis.Values) == 0 {
			return nil, zerr.With(domain.ErrEmptyAxis, "axis", axis.Name)
		}
		axisNames[axis.Name] = true
	}

	var combos []domain.Combination
	if len(s.Axes) > 0 || len(s.Include) == 0 {
		combos = product(s.Axes)
	}

	for _, ex := range s.Exclude {
		for k := range ex {
			if !axisNames[k] {
				return nil, zerr.With(domain.ErrInvalidMatrix, "exclude_key", k)
			}
		}
		combos = slices.DeleteFunc(combos, func(c domain.Combination) bool {
			return matchesAll(c, ex)
		})
	}

	for _, inc := range s.Include {
		combos = include(combos, s.Axes, axisNames, inc)
	}

	return combos, nil
}

func product(axes []domain.Axis) []domain.Combination {
	if len(axes) == 0 {
		return []domain.Combination{{}}
	}

	total := 1
	for _, axis := range axes {
		total *= len(axis.Values)
	}

	combos := make([]domain.Combination, 0, total)
	idx := make([]int, len(axes))
	for range total {
		c := make(domain.Combination, len(axes))
		for i, axis := range axes {
			c[i] = domain.MatrixValue{Axis: axis.Name, Value: axis.Values[idx[i]]}
		}
		combos = append(combos, c)

		// Advance the odometer, last axis fastest.
		for i := len(axes) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i].Values) {
				break
			}
			idx[i] = 0
		}
	}
	return combos
}

func matchesAll(c domain.Combination, values map[string]string) bool {
	for k, v := range values {
		if got, ok := c.Get(k); !ok || got != v {
			return false
		}
	}
	return true
}

// include extends every combination whose axis values agree with inc by the
// non-axis keys of inc. When no combination agrees, inc is appended as a new one.
func include(combos []domain.Combination, axes []domain.Axis, axisNames map[string]bool, inc map[string]string) []domain.Combination {
	extras := make([]string, 0, len(inc))
	for k := range inc {
		if !axisNames[k] {
			extras = append(extras, k)
		}
	}
	slices.Sort(extras)

	if len(extras) > 0 {
		matched := false
		for i, c := range combos {
			if !matchesAxes(c, inc, axisNames) {
				continue
			}
			matched = true
			for _, k := range extras {
				combos[i] = set(c, k, inc[k])
				c = combos[i]
			}
		}
		if matched {
			return combos
		}
	} else if slices.ContainsFunc(combos, func(c domain.Combination) bool { return matchesAll(c, inc) }) {
		return combos
	}

	c := make(domain.Combination, 0, len(inc))
	for _, axis := range axes {
		if v, ok := inc[axis.Name]; ok {
			c = append(c, domain.MatrixValue{Axis: axis.Name, Value: v})
		}
	}
	for _, k := range extras {
		c = append(c, domain.MatrixValue{Axis: k, Value: inc[k]})
	}
	return append(combos, c)
}

func matchesAxes(c domain.Combination, inc map[string]string, axisNames map[string]bool) bool {
	for k, v := range inc {
		if !axisNames[k] {
			continue
		}
		if got, ok := c.Get(k); !ok || got != v {
			return false
		}
	}
	return true
}

func set(c domain.Combination, axis, value string) domain.Combination {
	out := slices.Clone(c)
	for i := range out {
		if out[i].Axis == axis {
			out[i].Value = value
			return out
		}
	}
	return append(out, domain.MatrixValue{Axis: axis, Value: value})
}

// Expand turns a job definition into one job per matrix combination.
// Job names, runs-on labels and job env are evaluated with the matrix context
// of the combination.
func Expand(spec *domain.JobSpec, workflowEnv map[string]string) ([]*domain.Job, error) {
	combos, err := Combinations(spec.Strategy)
	if err != nil {
		return nil, zerr.With(err, "job", spec.ID)
	}

	jobs := make([]*domain.Job, 0, len(combos))
	for _, combo := range combos {
		job, err := expandOne(spec, workflowEnv, combo)
		if err != nil {
			return nil, zerr.With(err, "job", spec.ID)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func expandOne(spec *domain.JobSpec, workflowEnv map[string]string, combo domain.Combination) (*domain.Job, error) {
	ctx := &expr.Context{Matrix: combo.Map(), Env: maps.Clone(workflowEnv)}

	env, err := ctx.InterpolateMap(spec.Env)
	if err != nil {
		return nil, err
	}
	maps.Copy(ctx.Env, env)

	name, err := jobName(ctx, spec, combo)
	if err != nil {
		return nil, err
	}

	runsOn, err := ctx.Interpolate(spec.RunsOn)
	if err != nil {
		return nil, err
	}

	return &domain.Job{
		SpecID:  spec.ID,
		Name:    name,
		RunsOn:  runsOn,
		Matrix:  combo,
		Env:     env,
		Timeout: spec.Timeout,
		Steps:   spec.Steps,
	}, nil
}

func jobName(ctx *expr.Context, spec *domain.JobSpec, combo domain.Combination) (string, error) {
	if strings.Contains(spec.Name, "${{") {
		return ctx.Interpolate(spec.Name)
	}

	base := spec.Name
	if base == "" {
		base = spec.ID
	}
	if len(combo) == 0 {
		return base, nil
	}
	return base + " (" + strings.Join(combo.Values(), ", ") + ")", nil
}

// ExpandWorkflow expands the selected jobs of the workflow in declaration
// order. An empty selection expands every job. Duplicate job names get a
// numeric suffix.
func ExpandWorkflow(wf *domain.Workflow, selected []string) ([]*domain.Job, error) {
	specs := wf.Jobs
	if len(selected) > 0 {
		specs = make([]*domain.JobSpec, 0, len(selected))
		for _, id := range selected {
			spec, ok := wf.Job(id)
			if !ok {
				return nil, zerr.With(domain.ErrJobNotFound, "job", id)
			}
			specs = append(specs, spec)
		}
	}

	var jobs []*domain.Job
	seen := make(map[string]int)
	for _, spec := range specs {
		expanded, err := Expand(spec, wf.Env)
		if err != nil {
			return nil, err
		}
		for _, job := range expanded {
			seen[job.Name]++
			if n := seen[job.Name]; n > 1 {
				job.Name += " #" + strconv.Itoa(n)
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}
