// Package actions implements the built-in reusable actions a step can
// reference with uses:.
package actions

import (
	"context"
	"io"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

// Invocation carries everything an action needs for one step.
type Invocation struct {
	// Root is the workflow root on the local machine.
	Root string
	Host *domain.Host
	// Inputs are the interpolated with: values of the step.
	Inputs map[string]string
	// NoCache disables cache restore and save.
	NoCache bool
	Out     io.Writer
}

// Input returns the named input, or def when it is unset or blank.
func (inv *Invocation) Input(name, def string) string {
	if v := strings.TrimSpace(inv.Inputs[name]); v != "" {
		return v
	}
	return def
}

func (inv *Invocation) required(name string) (string, error) {
	v := inv.Input(name, "")
	if v == "" {
		return "", zerr.With(domain.ErrMissingInput, "input", name)
	}
	return v, nil
}

// PostFunc runs once all steps of the job have finished.
// succeeded reports whether every step passed.
type PostFunc func(ctx context.Context, succeeded bool, out io.Writer) error

// Result is what an action hands back to the job.
type Result struct {
	// Outputs are published as steps.<id>.outputs.
	Outputs map[string]string
	// Env holds "KEY=VALUE" variables applied to every later step.
	// PATH entries are prepended.
	Env []string
	// CacheHit is set by actions that restore a cache.
	CacheHit *bool
	// Post is an optional post-job hook.
	Post PostFunc
}

// Action is a built-in step implementation.
type Action interface {
	Run(ctx context.Context, inv *Invocation) (*Result, error)
}

// Registry maps action references to their implementations.
type Registry struct {
	actions map[string]Action
}

const (
	// CheckoutName is the reference of the checkout action.
	CheckoutName = "actions/checkout"
	// CacheName is the reference of the cache action.
	CacheName = "actions/cache"
	// SetupMinicondaName is the reference of the conda environment action.
	SetupMinicondaName = "conda-incubator/setup-miniconda"
)

// NewRegistry creates a registry holding the built-in actions.
func NewRegistry(copier ports.SourceCopier, cache ports.CacheStore, envFactory ports.EnvironmentFactory) *Registry {
	return &Registry{
		actions: map[string]Action{
			CheckoutName:       &Checkout{copier: copier},
			CacheName:          &Cache{store: cache},
			SetupMinicondaName: &SetupMiniconda{factory: envFactory},
		},
	}
}

// Lookup resolves an owner/name@ref reference. The ref is ignored.
func (r *Registry) Lookup(uses string) (Action, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(uses), "@")
	a, ok := r.actions[strings.ToLower(name)]
	return a, ok
}

// Validate checks that every uses: of the workflow names a known action.
func (r *Registry) Validate(wf *domain.Workflow) error {
	for _, job := range wf.Jobs {
		for i := range job.Steps {
			step := &job.Steps[i]
			if !step.IsAction() {
				continue
			}
			if _, ok := r.Lookup(step.Uses); !ok {
				err := zerr.With(domain.ErrUnknownAction, "uses", step.Uses)
				return zerr.With(zerr.With(err, "job", job.ID), "step", i+1)
			}
		}
	}
	return nil
}
