package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wormhole-demo/nft-receiver/internal"
	"github.com/wormhole-demo/nft-receiver/internal/api"
	"github.com/wormhole-demo/nft-receiver/internal/clients"
)

// serveCmd runs the HTTP API and, when a spy endpoint is set, the spy relayer
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive VAAs over HTTP and from the Wormhole spy",
	Long: `Serves the receive API and optionally listens to a Wormhole spy for VAAs.

Every VAA goes through signature verification against the configured guardian
set, the replay registry and the payload decoder before it is minted.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		printBanner()
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String(
		"listen-addr",
		":8080",
		"HTTP listen address")

	serveCmd.Flags().String(
		"spy-rpc-host",
		"",
		"Wormhole spy service endpoint (empty disables the relayer)")

	serveCmd.Flags().IntSlice(
		"chain-ids",
		nil,
		"Source chain IDs the relayer accepts (empty accepts all)")

	serveCmd.Flags().String(
		"emitter-address",
		"",
		"Source emitter address the relayer accepts (hex)")

	serveCmd.Flags().Int64(
		"max-in-flight",
		16,
		"Maximum number of VAAs processed concurrently by the relayer")

	serveCmd.Flags().Float64(
		"rate-limit",
		10,
		"Submissions per second accepted by the HTTP API (0 disables the limit)")

	serveCmd.Flags().Int(
		"rate-burst",
		20,
		"Burst size of the HTTP API rate limit")

	viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen-addr"))
	viper.BindPFlag("spy_rpc_host", serveCmd.Flags().Lookup("spy-rpc-host"))
	viper.BindPFlag("max_in_flight", serveCmd.Flags().Lookup("max-in-flight"))
	viper.BindPFlag("rate_limit", serveCmd.Flags().Lookup("rate-limit"))
	viper.BindPFlag("rate_burst", serveCmd.Flags().Lookup("rate-burst"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()
	logger.Info("Starting NFT receiver")

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Received shutdown signal")
		cancel()
	}()

	comps, err := buildComponents(ctx, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer comps.Close()

	if comps.feePayer.IsZero() {
		return fmt.Errorf("a fee payer is required: set --fee-payer or use the solana minter")
	}

	var limiter *rate.Limiter
	if limit := viper.GetFloat64("rate_limit"); limit > 0 {
		limiter = rate.NewLimiter(rate.Limit(limit), viper.GetInt("rate_burst"))
	}

	handler := api.New(logger, api.Config{FeePayer: comps.feePayer, Limiter: limiter}, comps.receiver, comps.registry)
	server := &http.Server{
		Addr:              viper.GetString("listen_addr"),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if spyHost := viper.GetString("spy_rpc_host"); spyHost != "" {
		relayer, err := newSpyRelayer(cmd, logger, spyHost, comps)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer relayer.Close()

		g.Go(func() error {
			if err := relayer.Start(gctx); err != nil {
				return fmt.Errorf("relayer stopped with error: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func newSpyRelayer(cmd *cobra.Command, logger *zap.Logger, spyHost string, comps *components) (*internal.Relayer, error) {
	// Get flags directly from command (viper bindings conflict across commands)
	emitterAddress, _ := cmd.Flags().GetString("emitter-address")
	chainIDsInt, _ := cmd.Flags().GetIntSlice("chain-ids")

	chainIDs := make([]vaaLib.ChainID, len(chainIDsInt))
	for i, id := range chainIDsInt {
		chainIDs[i] = vaaLib.ChainID(id)
	}

	var emitter *vaaLib.Address
	if emitterAddress != "" {
		addr, err := internal.ParseEmitterAddress(emitterAddress)
		if err != nil {
			return nil, err
		}
		emitter = &addr
	}

	spyClient, err := clients.NewSpyClient(logger, spyHost, clients.EmitterFilters(chainIDs, emitter))
	if err != nil {
		return nil, fmt.Errorf("failed to create spy client: %w", err)
	}

	relayer, err := internal.NewRelayer(logger, internal.RelayerConfig{
		ChainIDs:       chainIDs,
		EmitterAddress: emitterAddress,
		FeePayer:       comps.feePayer,
		MaxInFlight:    viper.GetInt64("max_in_flight"),
	}, spyClient, comps.receiver)
	if err != nil {
		spyClient.Close()
		return nil, fmt.Errorf("failed to initialize relayer: %w", err)
	}
	return relayer, nil
}
