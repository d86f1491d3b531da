// Package cli implements the csvedit command line: it loads a file through
// the same session service the web editor uses, applies one action and
// writes the result.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/csvedit/internal/admin"
	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/core"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/JonMunkholm/csvedit/internal/tui"
	"github.com/spf13/cobra"
)

// Env holds the process surroundings of a command run.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// S3 is created from the default AWS session when nil.
	S3 S3Client

	// RunTUI starts the terminal editor. Defaults to tui.Run.
	RunTUI func(context.Context, tui.Options) error

	// OpenStore opens the persistent session store. Defaults to admin.OpenStore.
	OpenStore func(context.Context, *config.Config) (core.Store, func(), error)

	cfg     *config.Config
	service *core.Service
	verbose bool
}

// NewEnv returns an Env bound to the process stdio.
func NewEnv() *Env {
	return &Env{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		RunTUI:    tui.Run,
		OpenStore: admin.OpenStore,
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	env := NewEnv()
	cmd := NewRootCmd(env)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(env.Stderr, "csvedit: %s\n", describeError(err))
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "csvedit",
		Short: "View and edit CSV files",
		Long: `csvedit loads a CSV file, applies row edits and writes the result.

Inputs and outputs may be local paths, "-" for stdin/stdout, or
s3://bucket/key locations. Rows are numbered from 1.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
	}
	root.SetIn(env.Stdin)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newShowCmd(env),
		newAddCmd(env),
		newEditCmd(env),
		newDeleteCmd(env),
		newDescribeCmd(env),
		newExportCmd(env),
		newTUICmd(env),
		newPurgeCmd(env),
	)
	return root
}

// setup loads configuration and routes logs to stderr so stdout carries
// only command output.
func (e *Env) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if e.verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(e.Stderr, level, cfg.Logging.Format))

	e.cfg = cfg
	e.service = core.NewService(core.NewMemoryStore(), cfg)
	if e.RunTUI == nil {
		e.RunTUI = tui.Run
	}
	if e.OpenStore == nil {
		e.OpenStore = admin.OpenStore
	}
	return nil
}

// load reads an input location into a fresh session.
func (e *Env) load(ctx context.Context, loc string) (*core.Session, error) {
	src, err := e.open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer src.r.Close()

	return e.service.Load(ctx, "", src.name, src.r)
}

// writeCSV serializes the session to an output location. Output is
// byte-exact with no trailing newline, so it can be piped back in.
func (e *Env) writeCSV(ctx context.Context, sessionID, out string) error {
	text, err := e.service.Export(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.write(ctx, out, []byte(text))
}

// writeXLSX writes the session as a workbook to an output location.
func (e *Env) writeXLSX(ctx context.Context, sessionID, out string) error {
	var buf bytes.Buffer
	if err := e.service.ExportXLSX(ctx, sessionID, &buf); err != nil {
		return err
	}
	return e.write(ctx, out, buf.Bytes())
}

// parseAssignments turns repeated k=v flags into a draft. Keys that are
// not headers are reported and dropped.
func parseAssignments(sets []string, headers []string) (core.Draft, error) {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	draft := make(core.Draft, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want column=value", s)
		}
		if !known[k] {
			slog.Warn("ignoring unknown column", "column", k)
			continue
		}
		draft[k] = v
	}
	return draft, nil
}

// rowAt maps a 1-based row number to a record.
func rowAt(doc *core.Document, n int) (core.Record, error) {
	if n < 1 || n > len(doc.Rows) {
		return core.Record{}, fmt.Errorf("row %d out of range (1-%d): %w", n, len(doc.Rows), core.ErrRowNotFound)
	}
	return doc.Rows[n-1], nil
}

// describeError prefixes user-facing errors with their support message.
func describeError(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%v (%s)", err, core.MapError(err).Code)
	}
	return err.Error()
}
