// Command linkmon runs the link monitoring daemon and its supporting
// configuration tooling.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/linkmon/internal/config"
	"git.home.luguber.info/inful/linkmon/internal/daemon"
	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
	"git.home.luguber.info/inful/linkmon/internal/version"
)

// CLI is the command tree. Global flags apply to every command; the
// logging overrides beat the values from the configuration file.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"linkmon.yaml"`
	EnvFile   string `help:"Environment file to load before reading the configuration"`
	LogLevel  string `help:"Override the configured log level (debug, info, warn, error)"`
	LogFormat string `help:"Override the configured log format (text, json)"`

	Run     RunCmd     `cmd:"" help:"Start the monitoring daemon"`
	Check   CheckCmd   `cmd:"" help:"Validate the configuration and exit"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// loadConfig loads the optional environment file and then the
// configuration.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil {
			return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to load environment file").
				WithContext("path", c.EnvFile).
				Build()
		}
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, derrors.ConfigInvalid(err, c.Config).Build()
	}
	return cfg, nil
}

// setupLogging installs the process-wide logger from the configured
// defaults and the CLI overrides.
func (c *CLI) setupLogging(cfg *config.Config) {
	level := cfg.Monitoring.Logging.Level
	if c.LogLevel != "" {
		level = config.NormalizeLogLevel(c.LogLevel)
	}
	format := cfg.Monitoring.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}

	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// RunCmd starts the daemon and blocks until a shutdown signal arrives.
type RunCmd struct{}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	cli.setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg, cli.Config)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownGraceDuration())
	defer stopCancel()
	return d.Stop(stopCtx)
}

// CheckCmd validates the configuration file without starting anything.
type CheckCmd struct{}

func (c *CheckCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	links := 0
	for _, n := range cfg.Networks {
		links += len(n.Links)
	}
	fmt.Printf("Configuration OK: %d network(s), %d link(s)\n", len(cfg.Networks), links)
	return nil
}

// InitCmd writes the example configuration to the configured path.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(cli *CLI) error {
	if err := config.Init(cli.Config, i.Force); err != nil {
		return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to write example configuration").
			WithContext("path", cli.Config).
			Build()
	}
	fmt.Printf("Wrote example configuration to %s\n", cli.Config)
	return nil
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("linkmon %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("linkmon"),
		kong.Description("Monitors networks of redundant RPC links and serves their health over JSON-RPC."),
		kong.UsageOnError(),
	)

	if err := kctx.Run(&cli); err != nil {
		adapter := derrors.NewCLIErrorAdapter(cli.LogLevel == "debug", slog.Default())
		adapter.HandleError(err)
	}
}
