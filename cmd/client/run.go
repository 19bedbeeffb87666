package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gafferongames/cubes/internal/client"
	"github.com/gafferongames/cubes/internal/config"
	"github.com/gafferongames/cubes/internal/game"
	"github.com/gafferongames/cubes/internal/metrics"
	"github.com/gafferongames/cubes/internal/status"
	"github.com/gafferongames/cubes/internal/transport"
	"github.com/gafferongames/cubes/internal/window"
	"github.com/gafferongames/cubes/pkg/pacer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath string
	server     string
	listen     string
	status     string
	logLevel   string
	headless   bool
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "cubes-client",
		Short: "Connect to a cubes server and play",
		Long: `Connects to a cubes server, synchronizes with its simulation and streams
input to it until the session ends.

Examples:
  cubes-client --server=127.0.0.1:50000
  cubes-client --headless --status=127.0.0.1:9090
  cubes-client --config=client.toml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "Server address (host:port)")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Local UDP address to bind")
	cmd.Flags().StringVar(&opts.status, "status", "", "Serve /metrics and /session on this address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run without a window")

	return cmd
}

// loadConfig reads the configuration file, if any, and lets flags that were
// set explicitly override it.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerAddr = opts.server
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = opts.listen
	}
	if flags.Changed("status") {
		cfg.StatusAddr = opts.status
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("headless") {
		cfg.Headless = opts.headless
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	config.SetupLogging(level)

	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("resolving server %q: %w", cfg.ServerAddr, err)
	}

	tr, err := transport.Listen(cfg.ListenAddr, transport.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			slog.Error("failed to close transport", "error", err)
		}
	}()
	slog.Info("bound to udp", "address", tr.LocalAddr())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	dt := 1 / float32(cfg.FrameRate*cfg.TicksPerFrame)
	world := game.NewWorld(dt)
	c := client.New(tr,
		client.WithLogger(slog.Default()),
		client.WithMetrics(m),
		client.WithWorld(world),
		client.WithTimeout(cfg.Timeout.Duration),
		client.WithTicksPerFrame(cfg.TicksPerFrame),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	loopOpts := []game.Option{game.WithMetrics(m)}
	if cfg.StatusAddr != "" {
		srv := status.New(reg)
		loopOpts = append(loopOpts, game.WithPublisher(srv))
		g.Go(func() error {
			return srv.ListenAndServe(ctx, cfg.StatusAddr)
		})
	}
	loop := game.NewLoop(c, world, loopOpts...)

	c.Connect(serverAddr, time.Now())

	// ebiten wants the main goroutine, so the loop runs here and not in g
	if cfg.Headless {
		err = loop.Run(ctx, pacer.New(cfg.FrameDuration()), game.NeutralInput)
	} else {
		err = window.New(ctx, loop).Run(cfg.FrameRate)
	}
	c.Disconnect()
	cancel()

	return errors.Join(err, g.Wait())
}
