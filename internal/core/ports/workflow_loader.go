package ports

import "go.trai.ch/matrix/internal/core/domain"

// WorkflowLoader defines the interface for loading workflow definitions.
//
//go:generate mockgen -source=workflow_loader.go -destination=mocks/mock_workflow_loader.go -package=mocks
type WorkflowLoader interface {
	// Discover walks up from cwd and returns the path of the nearest workflow file.
	Discover(cwd string) (string, error)

	// Load reads and validates the workflow file at path.
	Load(path string) (*domain.Workflow, error)
}
