package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/matrix/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/history" //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/host"    //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/shell"   //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/matrix/internal/engine/actions"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			host.NodeID,
			shell.NodeID,
			fs.HasherNodeID,
			actions.NodeID,
			history.NodeID,
			watcher.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.WorkflowLoader](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			hosts, err := graft.Dep[ports.HostProvider](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			registry, err := graft.Dep[*actions.Registry](ctx)
			if err != nil {
				return nil, err
			}
			historyStore, err := graft.Dep[ports.HistoryStore](ctx)
			if err != nil {
				return nil, err
			}
			w, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, log, hosts, executor, hasher, registry, historyStore, w), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}
