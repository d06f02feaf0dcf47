package ports

import (
	"context"

	"go.trai.ch/matrix/internal/core/domain"
)

// HistoryStore defines the interface for persisting finished runs.
//
//go:generate mockgen -source=history.go -destination=mocks/mock_history.go -package=mocks
type HistoryStore interface {
	// Record appends the run and its job results.
	Record(ctx context.Context, root string, report *domain.RunReport) error

	// List returns the most recent runs, newest first.
	List(ctx context.Context, root string, limit int) ([]domain.RunSummary, error)
}
