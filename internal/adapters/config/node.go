package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/adapters/logger"
	"go.trai.ch/matrix/internal/core/ports"
)

// NodeID is the unique identifier for the workflow loader Graft node.
const NodeID graft.ID = "adapter.workflow_loader"

func init() {
	graft.Register(graft.Node[ports.WorkflowLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.WorkflowLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
