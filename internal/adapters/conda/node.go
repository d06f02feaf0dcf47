package conda

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/adapters/shell"
	"go.trai.ch/matrix/internal/core/ports"
)

// NodeID is the unique identifier for the conda environment factory Graft node.
const NodeID graft.ID = "adapter.environment_factory"

func init() {
	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.EnvironmentFactory, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewEnvFactory(executor), nil
		},
	})
}
