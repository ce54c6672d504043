package handlers

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Handler = (*Exec)(nil)

// Exec runs configured commands for every file that has a destination.
//
// Arguments may contain the placeholders {path}, {dest}, {root}, {rel},
// {name} and {ext}, which expand to the matching FileInfo fields.
type Exec struct {
	runner   ports.CommandRunner
	commands [][]string
	dir      string
	env      map[string]string
}

// NewExec creates an Exec handler running commands in dir.
func NewExec(runner ports.CommandRunner, commands [][]string, dir string, env map[string]string) *Exec {
	return &Exec{runner: runner, commands: commands, dir: dir, env: env}
}

// Name identifies the handler in diagnostics.
func (e *Exec) Name() string {
	return "exec"
}

// Handle runs every command in order. The first failing command fails the file.
func (e *Exec) Handle(ctx context.Context, file domain.FileInfo) (domain.Decision, error) {
	if !file.HasDest() {
		return domain.Stop, nil
	}

	r := strings.NewReplacer(
		"{path}", file.Path,
		"{dest}", file.Dest,
		"{root}", file.Root,
		"{rel}", file.Rel,
		"{name}", file.Name,
		"{ext}", file.Ext,
	)

	for _, argv := range e.commands {
		args := slices.Clone(argv)
		for i, a := range args {
			args[i] = r.Replace(a)
		}
		if err := e.runner.Run(ctx, domain.Command{Args: args, Dir: e.dir, Env: e.env}); err != nil {
			return domain.Continue, zerr.With(err, "path", file.Path)
		}
	}
	return domain.Continue, nil
}
