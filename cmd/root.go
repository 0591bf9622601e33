package cmd

import (
	"fmt"
	"os"
	"strings"

	dotenv "github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nft-receiver",
	Short: "Verifies Wormhole VAAs and mints wrapped NFTs exactly once",
}

func init() {
	// Tentatively load .env file
	_ = dotenv.Load()

	rootCmd.PersistentFlags().Bool(
		"debug",
		false,
		"Enables debug output.")

	rootCmd.PersistentFlags().Bool(
		"json",
		false,
		"Enables structured logging in JSON format.")

	// Guardian sets
	rootCmd.PersistentFlags().StringSlice(
		"guardian-keys",
		nil,
		"Guardian addresses of the static guardian set, in index order")

	rootCmd.PersistentFlags().Uint32(
		"guardian-set-index",
		0,
		"Index of the static guardian set")

	rootCmd.PersistentFlags().Uint32(
		"guardian-set-expiration",
		0,
		"Unix time at which the static guardian set expires (0 never expires)")

	rootCmd.PersistentFlags().String(
		"core-rpc-url",
		"",
		"EVM RPC URL used to read guardian sets from the Wormhole core contract")

	rootCmd.PersistentFlags().String(
		"wormhole-contract",
		"",
		"Wormhole core contract address on the core RPC chain")

	rootCmd.PersistentFlags().Duration(
		"guardian-cache-ttl",
		DefaultGuardianCacheTTL,
		"How long guardian sets read from the core contract are cached")

	rootCmd.PersistentFlags().StringSlice(
		"emitters",
		nil,
		"Registered emitters as chain=address pairs (empty accepts every emitter)")

	// Replay registry
	rootCmd.PersistentFlags().String(
		"registry",
		RegistryPebble,
		"Replay registry backend: memory, pebble, postgres or redis")

	rootCmd.PersistentFlags().String(
		"pebble-path",
		DefaultPebblePath,
		"Directory of the embedded replay registry")

	rootCmd.PersistentFlags().String(
		"postgres-dsn",
		"",
		"Postgres connection string for the replay registry")

	rootCmd.PersistentFlags().String(
		"redis-url",
		"",
		"Redis URL for the replay registry")

	// Minting
	rootCmd.PersistentFlags().String(
		"minter",
		MinterLog,
		"Mint backend: log, solana, evm or service")

	rootCmd.PersistentFlags().String(
		"fee-payer",
		"",
		"Fee payer account (base58). Defaults to the Solana signer when one is configured")

	rootCmd.PersistentFlags().String(
		"default-destination",
		"",
		"Account that receives mints whose payload names none. Required for the evm minter")

	rootCmd.PersistentFlags().String(
		"solana-rpc-url",
		DefaultSolanaRPCURL,
		"RPC URL for Solana")

	rootCmd.PersistentFlags().String(
		"solana-private-key",
		"",
		"Private key for Solana transactions (base58 encoded)")

	rootCmd.PersistentFlags().String(
		"wrapped-program-id",
		"",
		"Wrapped asset program ID on Solana")

	rootCmd.PersistentFlags().String(
		"evm-rpc-url",
		"",
		"RPC URL of the EVM chain holding the wrapped asset contract")

	rootCmd.PersistentFlags().String(
		"evm-private-key",
		"",
		"Private key for EVM transactions")

	rootCmd.PersistentFlags().String(
		"evm-target-contract",
		"",
		"Wrapped asset contract on the EVM chain")

	rootCmd.PersistentFlags().String(
		"mint-service-url",
		"",
		"Base URL of the HTTP mint service")

	// Bind flags to viper for env variable support
	for _, name := range []string{
		"guardian-keys", "guardian-set-index", "guardian-set-expiration", "core-rpc-url", "wormhole-contract", "guardian-cache-ttl",
		"emitters", "registry", "pebble-path", "postgres-dsn", "redis-url",
		"minter", "fee-payer", "default-destination", "solana-rpc-url", "solana-private-key", "wrapped-program-id",
		"evm-rpc-url", "evm-private-key", "evm-target-contract", "mint-service-url",
	} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), rootCmd.PersistentFlags().Lookup(name))
	}

	cobra.OnInitialize(initConfig)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("nft-receiver")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

func printBanner() {
	colours := []string{
		"\033[38;5;81m", // Cyan
		"\033[38;5;75m", // Light Blue
		"\033[38;5;69m", // Sky Blue
		"\033[38;5;63m", // Dodger Blue
		"\033[38;5;57m", // Deep Sky Blue
		"\033[38;5;51m", // Cornflower Blue
	}
	banner := `
 _   _ _____ _____   ____               _
| \ | |  ___|_   _| |  _ \ ___  ___ ___(_)_   _____ _ __
|  \| | |_    | |   | |_) / _ \/ __/ _ \ \ \ / / _ \ '__|
| |\  |  _|   | |   |  _ <  __/ (_|  __/ |\ V /  __/ |
|_| \_|_|     |_|   |_| \_\___|\___\___|_| \_/ \___|_|
`
	lines := strings.Split(banner, "\n")

	// remove empty lines
	for i := 0; i < len(lines); i++ {
		if lines[i] == "" {
			lines = append(lines[:i], lines[i+1:]...)
			i--
		}
	}

	for i, line := range lines {
		fmt.Printf("%s%s\n", colours[i%len(colours)], line)
	}

	fmt.Println("\033[0m") // Reset
}

func configureLogging(cmd *cobra.Command, _ []string) *zap.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	json, _ := cmd.Flags().GetBool("json")

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.Development = true
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Configure JSON output if requested
	if json {
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to a basic logger if config fails
		logger, _ = zap.NewProduction()
	}

	// Replace the global logger
	zap.ReplaceGlobals(logger)

	return logger
}
