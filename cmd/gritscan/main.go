package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/odvcencio/tree-sitter-gritql/grammars"
	"github.com/odvcencio/tree-sitter-gritql/internal/config"
)

const version = "0.1.0"

var log = commonlog.GetLogger("gritscan.cli")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(afero.NewOsFs(), os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cli carries the state shared by all subcommands.
type cli struct {
	fs  afero.Fs
	out io.Writer
	cfg config.Config

	flagConfig  string
	flagFormat  string
	flagDB      string
	flagVerbose int
}

func newRootCmd(fs afero.Fs, out io.Writer) *cobra.Command {
	c := &cli{fs: fs, out: out}

	root := &cobra.Command{
		Use:           "gritscan",
		Short:         "Tokenize GritQL with its external scanner",
		Long:          "gritscan drives the GritQL external scanner over source files, stores resumable checkpoints in SQLite, and serves the scanner over WebSocket and LSP.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		// No Run: prints help by default.
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.flagConfig, "config", config.DefaultPath, "configuration file")
	root.PersistentFlags().StringVar(&c.flagFormat, "format", config.FormatText, "output format: text|json|yaml")
	root.PersistentFlags().StringVar(&c.flagDB, "db", "", "checkpoint database path (default from config)")
	root.PersistentFlags().CountVarP(&c.flagVerbose, "verbose", "v", "increase log verbosity")

	root.AddCommand(
		c.newTokensCmd(),
		c.newIndexCmd(),
		c.newResumeCmd(),
		c.newAuditCmd(),
		c.newServeCmd(),
		c.newLSPCmd(),
	)
	return root
}

// setup loads the configuration and applies flag overrides.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.fs, c.flagConfig)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = c.flagFormat
	}
	if flags.Changed("db") {
		cfg.Database = c.flagDB
	}
	if flags.Changed("verbose") {
		cfg.Verbosity = c.flagVerbose
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logFile)
	log.Debugf("config loaded from %s", c.flagConfig)
	return nil
}

// detect resolves the language for path by extension, consulting the
// configured extension overrides first.
func (c *cli) detect(path string) (*grammars.LangEntry, error) {
	if name, ok := c.cfg.LanguageFor(filepath.Ext(path)); ok {
		if entry := grammars.LookupLanguage(name); entry != nil {
			return entry, nil
		}
		return nil, fmt.Errorf("%s: configured language %q is not registered", path, name)
	}
	if entry := grammars.DetectLanguage(path); entry != nil {
		return entry, nil
	}
	return nil, fmt.Errorf("%s: unknown language", path)
}

func (c *cli) readSource(path string) (*grammars.LangEntry, []byte, error) {
	entry, err := c.detect(path)
	if err != nil {
		return nil, nil, err
	}
	src, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entry, src, nil
}
