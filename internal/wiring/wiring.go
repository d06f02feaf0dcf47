// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/matrix/internal/adapters/cas"
	_ "go.trai.ch/matrix/internal/adapters/conda"
	_ "go.trai.ch/matrix/internal/adapters/config"
	_ "go.trai.ch/matrix/internal/adapters/fs"
	_ "go.trai.ch/matrix/internal/adapters/history"
	_ "go.trai.ch/matrix/internal/adapters/host"
	_ "go.trai.ch/matrix/internal/adapters/logger"
	_ "go.trai.ch/matrix/internal/adapters/shell"
	_ "go.trai.ch/matrix/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/matrix/internal/app"
	_ "go.trai.ch/matrix/internal/engine/actions"
)
