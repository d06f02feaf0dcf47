package ports

import (
	"context"

	"go.trai.ch/matrix/internal/core/domain"
)

// HostProvider defines the interface for creating isolated job hosts.
//
//go:generate mockgen -source=host.go -destination=mocks/mock_host.go -package=mocks
type HostProvider interface {
	// Provision creates a fresh host able to serve req.Label.
	// It returns domain.ErrHostUnavailable if no host matches the label.
	Provision(ctx context.Context, req domain.HostRequest) (*domain.Host, error)

	// Teardown destroys the host and everything on it.
	Teardown(host *domain.Host) error
}
