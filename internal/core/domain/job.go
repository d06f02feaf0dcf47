package domain

import (
	"strings"
	"time"
	"unicode"
)

// MatrixValue is one axis assignment of a matrix combination.
type MatrixValue struct {
	Axis  string
	Value string
}

// Combination is an ordered set of axis assignments.
type Combination []MatrixValue

// Get returns the value assigned to the given axis.
func (c Combination) Get(axis string) (string, bool) {
	for _, v := range c {
		if v.Axis == axis {
			return v.Value, true
		}
	}
	return "", false
}

// Map returns the combination as a map keyed by axis name.
func (c Combination) Map() map[string]string {
	m := make(map[string]string, len(c))
	for _, v := range c {
		m[v.Axis] = v.Value
	}
	return m
}

// Values returns the assigned values in axis order.
func (c Combination) Values() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Value
	}
	return out
}

// Job is one matrix cell of a JobSpec, ready to be executed.
type Job struct {
	SpecID  string
	Name    string
	RunsOn  string
	Matrix  Combination
	Env     map[string]string
	Timeout time.Duration
	Steps   []StepSpec
}

// Slug returns a filesystem safe identifier for the job.
func (j *Job) Slug() string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(j.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
