package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/certforge/certmint/generator"
	"github.com/certforge/certmint/ledger"
	"github.com/certforge/certmint/mint"
	"github.com/certforge/certmint/pkg/config"
	"github.com/certforge/certmint/pkg/log"
	"github.com/certforge/certmint/pkg/signer"
	"github.com/certforge/certmint/pkg/signer/file"
	"github.com/certforge/certmint/pkg/signer/noop"
	"github.com/certforge/certmint/pkg/store"
	"github.com/certforge/certmint/rpc"
)

// NewRunCmd returns the command that starts the orchestrator.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the certmint orchestrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if err := log.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
				return fmt.Errorf("error setting up logging: %w", err)
			}
			logger := log.New("main")

			s, err := setupSigner(cfg)
			if err != nil {
				return err
			}
			addr, err := s.Address()
			if err != nil {
				return fmt.Errorf("error deriving signer address: %w", err)
			}
			logger.Infow("signer ready", "type", cfg.Signer.SignerType, "address", addr.Hex())

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			lc := ledger.NewEVMClient(ledger.EVMConfig{
				URL:             cfg.Ledger.URL,
				ContractAddress: cfg.Ledger.ContractAddress,
				GasLimit:        cfg.Ledger.GasLimit,
			}, s, log.New("ledger"))
			if err := lc.Start(ctx); err != nil {
				return fmt.Errorf("error connecting to ledger: %w", err)
			}
			defer func() {
				if err := lc.Stop(); err != nil {
					logger.Errorw("error stopping ledger client", "error", err)
				}
			}()

			st := store.NewInMemory()
			defer func() {
				if err := st.Close(); err != nil {
					logger.Errorw("error closing store", "error", err)
				}
			}()

			var metrics *mint.Metrics
			if cfg.Instrumentation.IsPrometheusEnabled() {
				metrics = mint.PrometheusMetrics("certmint")
			} else {
				metrics = mint.NopMetrics()
			}

			manager := mint.NewManager(cfg.Mint, lc, s, st, log.New("mint"), metrics)
			gen := generator.NewClient(cfg.Generator.Address, cfg.Generator.Timeout.Duration, log.New("generator"))
			server := rpc.NewServer(cfg.RPC, manager, gen, st, log.New("rpc"))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return manager.Run(ctx) })
			g.Go(func() error { return server.Start(ctx) })
			if cfg.Instrumentation.IsPrometheusEnabled() {
				g.Go(func() error { return servePrometheus(ctx, cfg.Instrumentation, logger) })
			}

			logger.Infow("certmint started", "rpc", cfg.RPC.Address, "ledger", cfg.Ledger.URL)
			if err := g.Wait(); err != nil && ctx.Err() == nil {
				return err
			}
			logger.Infow("certmint stopped")
			return nil
		},
	}

	config.AddFlags(cmd)
	return cmd
}

func setupSigner(cfg config.Config) (signer.Signer, error) {
	switch cfg.Signer.SignerType {
	case "file":
		keyDir := cfg.Signer.SignerPath
		if !filepath.IsAbs(keyDir) {
			keyDir = filepath.Join(cfg.RootDir, keyDir)
		}
		s, err := file.LoadFileSigner(keyDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("no signing key in %s, run 'certmint init' first", keyDir)
			}
			return nil, fmt.Errorf("error loading signing key: %w", err)
		}
		return s, nil
	case "noop":
		return noop.NewNoopSigner()
	default:
		return nil, fmt.Errorf("unknown signer type %q", cfg.Signer.SignerType)
	}
}

func servePrometheus(ctx context.Context, cfg *config.InstrumentationConfig, logger *logging.ZapEventLogger) error {
	srv := &http.Server{
		Addr: cfg.PrometheusListenAddr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer,
			promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
				MaxRequestsInFlight: cfg.MaxOpenConnections,
			}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("serving prometheus metrics", "addr", cfg.PrometheusListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
