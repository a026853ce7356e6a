package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goPriceOracle/internal/config"
	"github.com/LeJamon/goPriceOracle/internal/di"
	"github.com/LeJamon/goPriceOracle/internal/logging"

	// Database backends selectable by [database] backend
	_ "github.com/LeJamon/goPriceOracle/internal/storage/database/bbolt"
	_ "github.com/LeJamon/goPriceOracle/internal/storage/database/leveldb"
	_ "github.com/LeJamon/goPriceOracle/internal/storage/database/memory"
	_ "github.com/LeJamon/goPriceOracle/internal/storage/database/pebble"
)

var (
	// Server flags
	port     int
	bindAddr string
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the oracle daemon",
	Long: `Start the oracled server which provides:
- The signed JSON-RPC API on /rpc
- A health check on /health
- Prometheus metrics on /metrics when enabled
- The scheduled price feeder when enabled

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}

	// Server-specific flags, overriding [server] when set
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}
	if err := cfg.Server.Validate(); err != nil {
		return err
	}
	log := logging.New("server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container := di.New()
	provider := di.NewProvider(ctx, container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.WithError(err).Warn("Failed to close services")
		}
	}()

	if _, err := provider.Bootstrap(ctx); err != nil {
		return err
	}
	rpcServer, err := provider.RPCServer()
	if err != nil {
		return err
	}
	priceFeeder, err := provider.Feeder()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      rpcServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var feeders stopper
	if priceFeeder != nil {
		if err := priceFeeder.Start(); err != nil {
			return err
		}
		feeders = priceFeeder
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"address": httpServer.Addr,
			"methods": len(rpcServer.Methods()),
			"metrics": cfg.Server.Metrics,
		}).Info("JSON-RPC server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		return shutdown(cfg.Server, httpServer, feeders)
	})
	return g.Wait()
}

type stopper interface {
	Stop(ctx context.Context) error
}

func shutdown(sc config.ServerConfig, httpServer *http.Server, feeder stopper) error {
	ctx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if feeder != nil {
		if err := feeder.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("feeder: %w", err))
		}
	}
	return errors.Join(errs...)
}
