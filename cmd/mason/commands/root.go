// Package commands implements the CLI commands for mason.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/mason/internal/app"
	"go.trai.ch/mason/internal/build"
	"go.trai.ch/mason/internal/core/domain"
)

// CLI represents the command line interface for mason.
type CLI struct {
	app             Application
	rootCmd         *cobra.Command
	jsonLogs        func(bool)
	tracing         func(bool)
	progressJournal func(string) error
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) (*domain.Build, error)
	Search(ctx context.Context, opts app.SearchOptions) ([]string, error)
	Clean(ctx context.Context, opts app.CleanOptions) error
	Watch(ctx context.Context, opts app.WatchOptions) error
}

// Option configures a CLI.
type Option func(*CLI)

// WithJSONLogs sets the hook called with the value of the --json flag.
func WithJSONLogs(fn func(bool)) Option {
	return func(c *CLI) {
		c.jsonLogs = fn
	}
}

// WithTracing sets the hook called with the value of the --trace flag.
func WithTracing(fn func(bool)) Option {
	return func(c *CLI) {
		c.tracing = fn
	}
}

// WithProgressJournal sets the hook called with the --progress-journal path when it is set.
func WithProgressJournal(fn func(string) error) Option {
	return func(c *CLI) {
		c.progressJournal = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "mason",
		Short:         "Mirror source trees into a build destination through a handler chain",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Directory to start searching for "+domain.ConfigFileName)
	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("trace", false, "Log a trace span for every build and file")
	rootCmd.PersistentFlags().String("progress-journal", "", "Write progress updates as JSON lines to this file")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = c.applyGlobalFlags

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newSearchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	jsonLogs, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if c.jsonLogs != nil {
		c.jsonLogs(jsonLogs)
	}

	trace, err := cmd.Flags().GetBool("trace")
	if err != nil {
		return err
	}
	if c.tracing != nil {
		c.tracing(trace)
	}

	journal, err := cmd.Flags().GetString("progress-journal")
	if err != nil {
		return err
	}
	if journal != "" && c.progressJournal != nil {
		return c.progressJournal(journal)
	}
	return nil
}

func dir(cmd *cobra.Command) string {
	d, _ := cmd.Flags().GetString("dir")
	return d
}
