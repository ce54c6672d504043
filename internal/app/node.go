package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/mason/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/linear"             //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/telemetry"          //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/mason/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App      *App
	Logger   ports.Logger
	Tracer   *telemetry.Tracer
	Progress *progrock.Observer
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			cas.NodeID,
			fs.HasherNodeID,
			fs.ScannerNodeID,
			fs.CleanerNodeID,
			linear.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
			shell.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[*telemetry.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			progress, err := graft.Dep[*progrock.Observer](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log, Tracer: tracer, Progress: progress}, nil
		},
	})
}

//nolint:cyclop // one lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	opener, err := graft.Dep[ports.ManifestOpener](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	scanner, err := graft.Dep[ports.SourceScanner](ctx)
	if err != nil {
		return nil, err
	}
	cleaner, err := graft.Dep[ports.DestinationCleaner](ctx)
	if err != nil {
		return nil, err
	}
	console, err := graft.Dep[*linear.Observer](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[*telemetry.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	progress, err := graft.Dep[*progrock.Observer](ctx)
	if err != nil {
		return nil, err
	}
	runner, err := graft.Dep[ports.CommandRunner](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, opener, hasher, scanner, cleaner, console).
		WithObservers(tracer, progress).
		WithRunner(runner).
		WithWatcher(w), nil
}
