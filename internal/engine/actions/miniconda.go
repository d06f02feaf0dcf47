package actions

import (
	"context"
	"fmt"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
)

// DefaultEnvironmentName is the environment activated when
// activate-environment is not set.
const DefaultEnvironmentName = "test"

// SetupMiniconda provisions a named conda environment and activates it for
// the remaining steps of the job.
//
// Inputs: activate-environment, environment-file, python-version.
type SetupMiniconda struct {
	factory ports.EnvironmentFactory
}

// Run implements Action.
func (s *SetupMiniconda) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	spec := domain.EnvironmentSpec{
		Name:           inv.Input("activate-environment", DefaultEnvironmentName),
		File:           inv.Input("environment-file", ""),
		RuntimeVersion: inv.Input("python-version", ""),
		Host:           inv.Host,
	}

	env, err := s.factory.GetEnvironment(ctx, spec, inv.Out)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(inv.Out, "Activated environment %s\n", spec.Name)

	return &Result{Env: env}, nil
}
