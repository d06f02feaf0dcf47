// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/matrix/internal/core/domain"
)

// Executor defines the interface for running processes on a job host.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command and waits for it to exit.
	//
	// The env parameter contains environment variables in "KEY=VALUE" format,
	// typically the host variables plus whatever an EnvironmentFactory provisioned.
	//
	// It returns an error carrying the exit code if the process exits non-zero.
	Execute(ctx context.Context, cmd *domain.Command, env []string, stdout, stderr io.Writer) error
}
