package history

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/core/ports"
)

// NodeID is the unique identifier for the history store Graft node.
const NodeID graft.ID = "adapter.history_store"

func init() {
	graft.Register(graft.Node[ports.HistoryStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.HistoryStore, error) {
			return NewStore(), nil
		},
	})
}
