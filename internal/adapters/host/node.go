package host

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/core/ports"
)

// NodeID is the unique identifier for the host provider Graft node.
const NodeID graft.ID = "adapter.host_provider"

func init() {
	graft.Register(graft.Node[ports.HostProvider]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.HostProvider, error) {
			return NewProvider(), nil
		},
	})
}
