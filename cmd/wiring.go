package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal"
	"github.com/wormhole-demo/nft-receiver/internal/clients"
	"github.com/wormhole-demo/nft-receiver/internal/guardians"
	"github.com/wormhole-demo/nft-receiver/internal/minter"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

const (
	DefaultSolanaRPCURL     = "https://api.devnet.solana.com"
	DefaultPebblePath       = "./data/replay"
	DefaultGuardianCacheTTL = 10 * time.Minute

	RegistryMemory   = "memory"
	RegistryPebble   = "pebble"
	RegistryPostgres = "postgres"
	RegistryRedis    = "redis"

	MinterLog     = "log"
	MinterSolana  = "solana"
	MinterEVM     = "evm"
	MinterService = "service"
)

// components is everything a command needs to receive VAAs.
type components struct {
	receiver *internal.Receiver
	registry replay.Registry
	feePayer solana.PublicKey
}

func (c *components) Close() {
	if c.registry != nil {
		_ = c.registry.Close()
	}
}

func buildComponents(ctx context.Context, logger *zap.Logger, reg prometheus.Registerer) (*components, error) {
	emitters, err := internal.ParseEmitters(viper.GetStringSlice("emitters"))
	if err != nil {
		return nil, err
	}

	source, err := buildGuardianSource(ctx, logger)
	if err != nil {
		return nil, err
	}

	m, signer, err := buildMinter(ctx, logger)
	if err != nil {
		return nil, err
	}

	feePayer := signer
	if s := viper.GetString("fee_payer"); s != "" {
		feePayer, err = solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("invalid fee payer: %w", err)
		}
	}

	destination, err := resolveDefaultDestination(m, viper.GetString("default_destination"), feePayer)
	if err != nil {
		return nil, err
	}
	logger.Info("Default mint destination", zap.String("destination", destination))

	registry, err := buildRegistry(ctx, logger)
	if err != nil {
		return nil, err
	}

	receiver := internal.NewReceiver(logger,
		internal.ReceiverConfig{Emitters: emitters, DefaultDestination: destination},
		source,
		registry,
		internal.NewDispatcher(logger, m),
		internal.NewMetrics(reg))

	return &components{receiver: receiver, registry: registry, feePayer: feePayer}, nil
}

// resolveDefaultDestination picks the account that receives mints whose
// payload names none and checks it against the minter's chain. Without an
// explicit destination the fee payer is used, which only fits Solana.
func resolveDefaultDestination(m minter.Minter, configured string, feePayer solana.PublicKey) (string, error) {
	dest := configured
	if dest == "" && !feePayer.IsZero() {
		dest = feePayer.String()
	}

	v, ok := m.(minter.DestinationValidator)
	if !ok {
		return dest, nil
	}
	if err := v.ValidateDestination(dest); err != nil {
		if configured == "" {
			return "", fmt.Errorf("--default-destination is required for this minter: %w", err)
		}
		return "", fmt.Errorf("invalid default destination: %w", err)
	}
	return dest, nil
}

func buildGuardianSource(ctx context.Context, logger *zap.Logger) (guardians.Source, error) {
	if keys := viper.GetStringSlice("guardian_keys"); len(keys) > 0 {
		addrs, err := guardians.ParseKeys(keys)
		if err != nil {
			return nil, err
		}
		gs := &guardians.GuardianSet{
			Index:          viper.GetUint32("guardian_set_index"),
			Keys:           addrs,
			ExpirationTime: viper.GetUint32("guardian_set_expiration"),
		}
		logger.Info("Using static guardian set",
			zap.Uint32("index", gs.Index),
			zap.Int("keys", len(addrs)),
			zap.Uint32("expirationTime", gs.ExpirationTime))
		return guardians.NewStaticSource(gs), nil
	}

	rpcURL := viper.GetString("core_rpc_url")
	contract := viper.GetString("wormhole_contract")
	if rpcURL == "" || !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("either guardian keys or a core RPC URL and Wormhole contract are required")
	}

	// Read-only client, no key needed
	evmClient, err := clients.NewEVMClient(logger, rpcURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create core contract client: %w", err)
	}

	coreContract := common.HexToAddress(contract)
	current, err := evmClient.GetCurrentGuardianSetIndex(ctx, coreContract)
	if err != nil {
		return nil, fmt.Errorf("failed to read current guardian set index: %w", err)
	}
	logger.Info("Reading guardian sets from core contract",
		zap.String("contract", coreContract.Hex()),
		zap.Uint32("currentIndex", current))

	return guardians.NewCachedSource(logger, guardians.NewCoreSource(evmClient, coreContract), viper.GetDuration("guardian_cache_ttl")), nil
}

func buildRegistry(ctx context.Context, logger *zap.Logger) (replay.Registry, error) {
	backend := viper.GetString("registry")
	logger.Info("Opening replay registry", zap.String("backend", backend))

	switch backend {
	case RegistryMemory:
		logger.Warn("In-memory replay registry does not survive restarts")
		return replay.NewMemoryRegistry(), nil
	case RegistryPebble:
		return replay.OpenPebbleRegistry(viper.GetString("pebble_path"))
	case RegistryPostgres:
		return replay.OpenPostgresRegistry(ctx, viper.GetString("postgres_dsn"))
	case RegistryRedis:
		return replay.OpenRedisRegistry(ctx, viper.GetString("redis_url"))
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}

// buildMinter returns the configured minter and, for Solana, the signer
// that pays for mints.
func buildMinter(ctx context.Context, logger *zap.Logger) (minter.Minter, solana.PublicKey, error) {
	backend := viper.GetString("minter")

	switch backend {
	case MinterLog:
		return minter.NewLogMinter(logger), solana.PublicKey{}, nil

	case MinterSolana:
		solanaClient, err := clients.NewSolanaClient(logger,
			viper.GetString("solana_rpc_url"),
			viper.GetString("solana_private_key"),
			viper.GetString("wrapped_program_id"))
		if err != nil {
			return nil, solana.PublicKey{}, fmt.Errorf("failed to create Solana client: %w", err)
		}
		return minter.NewSolanaMinter(logger, solanaClient), solanaClient.GetPayerAddress(), nil

	case MinterEVM:
		target := viper.GetString("evm_target_contract")
		if !common.IsHexAddress(target) {
			return nil, solana.PublicKey{}, fmt.Errorf("invalid EVM target contract %q", target)
		}
		key := viper.GetString("evm_private_key")
		if key == "" {
			return nil, solana.PublicKey{}, fmt.Errorf("EVM private key is required for the evm minter")
		}
		evmClient, err := clients.NewEVMClient(logger, viper.GetString("evm_rpc_url"), key)
		if err != nil {
			return nil, solana.PublicKey{}, fmt.Errorf("failed to create EVM client: %w", err)
		}
		logger.Info("Minting on EVM", zap.String("address", evmClient.GetAddress().Hex()))
		return minter.NewEVMMinter(logger, common.HexToAddress(target), evmClient), solana.PublicKey{}, nil

	case MinterService:
		url := viper.GetString("mint_service_url")
		if url == "" {
			return nil, solana.PublicKey{}, fmt.Errorf("mint service URL is required for the service minter")
		}
		service := clients.NewMintServiceClient(logger, url)
		if err := service.CheckHealth(ctx); err != nil {
			logger.Warn("Mint service is not healthy yet", zap.Error(err))
		}
		return minter.NewServiceMinter(logger, service), solana.PublicKey{}, nil

	default:
		return nil, solana.PublicKey{}, fmt.Errorf("unknown minter %q", backend)
	}
}
