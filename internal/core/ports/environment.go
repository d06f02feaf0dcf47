package ports

import (
	"context"
	"io"

	"go.trai.ch/matrix/internal/core/domain"
)

// EnvironmentFactory creates named environments from environment-description files.
//
// Implementations are responsible for:
//   - Creating the environment on the host, pinned to the requested runtime version
//   - Installing what the description file lists
//   - Returning the variables (PATH prefix, activation variables) that select it
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentFactory interface {
	// GetEnvironment provisions spec and returns "KEY=VALUE" variables activating it.
	// Progress output of the underlying tool is written to out.
	GetEnvironment(ctx context.Context, spec domain.EnvironmentSpec, out io.Writer) ([]string, error)
}
