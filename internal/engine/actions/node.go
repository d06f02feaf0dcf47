package actions

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/adapters/cas"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/matrix/internal/adapters/conda" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/matrix/internal/adapters/fs"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/matrix/internal/core/ports"
)

// NodeID is the unique identifier for the action registry Graft node.
const NodeID graft.ID = "engine.actions"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.CopierNodeID,
			cas.NodeID,
			conda.NodeID,
		},
		Run: func(ctx context.Context) (*Registry, error) {
			copier, err := graft.Dep[ports.SourceCopier](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}

			envFactory, err := graft.Dep[ports.EnvironmentFactory](ctx)
			if err != nil {
				return nil, err
			}

			return NewRegistry(copier, store, envFactory), nil
		},
	})
}
