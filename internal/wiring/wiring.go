// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/mason/internal/adapters/cas"
	_ "go.trai.ch/mason/internal/adapters/config"
	_ "go.trai.ch/mason/internal/adapters/fs"
	_ "go.trai.ch/mason/internal/adapters/linear"
	_ "go.trai.ch/mason/internal/adapters/logger"
	_ "go.trai.ch/mason/internal/adapters/shell"
	_ "go.trai.ch/mason/internal/adapters/telemetry"
	_ "go.trai.ch/mason/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/mason/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/mason/internal/app"
)
