package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oukeidos/walldisplay/internal/apperrors"
	"github.com/oukeidos/walldisplay/internal/cleanup"
	"github.com/oukeidos/walldisplay/internal/logger"
	"github.com/oukeidos/walldisplay/internal/version"
)

const (
	defaultMenuDir    = "menu-data"
	defaultConfigPath = "config.json"
)

type globalOptions struct {
	dir        string
	configPath string
	debug      bool
	logLevel   string
	logFile    string
}

type runOptions struct {
	windowed bool
}

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		err = errors.Join(err, cleanupErr)
	}
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the user-facing part of err. The full chain goes to the
// debug log.
func reportError(w io.Writer, err error) {
	logger.Debug("Command failed", "error", err)
	fmt.Fprintln(w, "Error:", apperrors.PublicMessage(err))
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	runOpts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "walldisplay",
		Short: "Full-screen category slideshow for wall displays",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(global)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisplay(cmd, global, runOpts)
		},
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	addGlobalFlags(cmd.PersistentFlags(), global)
	cmd.Flags().BoolVar(&runOpts.windowed, "windowed", false, "Run in a window even if the config asks for fullscreen")

	cmd.AddCommand(
		newVersionCmd(),
		newCheckCmd(global),
		newInitConfigCmd(global),
	)
	return cmd
}

func addGlobalFlags(fs *pflag.FlagSet, o *globalOptions) {
	fs.StringVar(&o.dir, "dir", defaultMenuDir, "Menu data directory containing menu.data and the category folders")
	fs.StringVar(&o.configPath, "config", defaultConfigPath, "Configuration file (.json, .toml, .yaml)")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging (same as --log-level debug)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Minimum log level: debug, info, warn or error")
	fs.StringVar(&o.logFile, "log-file", "", "Also write JSON log records to this file")
}

// setupLogging configures the global logger and tags every record with a
// fresh session id.
func setupLogging(o *globalOptions) error {
	level := logger.ParseLevel(o.logLevel)
	if o.debug {
		level = logger.LevelDebug
	}
	if o.logFile == "" {
		logger.Init(level, nil)
	} else {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", o.logFile, err)
		}
		cleanup.Register("log file", f.Close)
		logger.Init(level, f)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	logger.WithSession(id.String())
	logger.Debug("Logging ready", "build", version.UserAgent(), "commit", version.Commit)
	return nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
