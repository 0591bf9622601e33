package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wormhole-demo/nft-receiver/internal"
	"github.com/wormhole-demo/nft-receiver/internal/api"
	"github.com/wormhole-demo/nft-receiver/internal/replay"
)

// submitCmd receives a single VAA and prints the result
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Receive a single VAA",
	Long: `Runs one VAA through the receiver and prints the result as JSON.

The VAA is read from --vaa or from --file, hex or base64 encoded.
With --lookup the replay registry is queried for a message id
(chain/emitter/sequence) instead and nothing is received.`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String(
		"vaa",
		"",
		"VAA to receive (hex or base64)")

	submitCmd.Flags().String(
		"file",
		"",
		"File containing the VAA (hex or base64)")

	submitCmd.Flags().String(
		"lookup",
		"",
		"Message id (chain/emitter/sequence) to look up in the replay registry")

	submitCmd.Flags().Duration(
		"timeout",
		2*time.Minute,
		"Timeout for guardian set and registry reads")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if lookup, _ := cmd.Flags().GetString("lookup"); lookup != "" {
		return runLookup(ctx, cmd, logger, lookup)
	}

	encoded, _ := cmd.Flags().GetString("vaa")
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read VAA file: %w", err)
		}
		encoded = string(b)
	}

	raw, err := internal.DecodeVAAString(encoded)
	if err != nil {
		return err
	}

	comps, err := buildComponents(ctx, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer comps.Close()

	res := comps.receiver.Receive(ctx, internal.Submission{
		VAA:           raw,
		FeePayer:      comps.feePayer,
		SystemProgram: solana.SystemProgramID,
	})

	if err := printJSON(cmd, api.FromResult(res)); err != nil {
		return err
	}

	if !res.OK() {
		return fmt.Errorf("VAA rejected: %s", res.Reason)
	}
	return nil
}

func runLookup(ctx context.Context, cmd *cobra.Command, logger *zap.Logger, s string) error {
	id, err := replay.ParseMessageID(s)
	if err != nil {
		return err
	}

	registry, err := buildRegistry(ctx, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	resp, err := lookupMessage(ctx, registry, id)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, resp); err != nil {
		return err
	}
	if !resp.Consumed {
		return fmt.Errorf("message %s has not been consumed", id)
	}
	return nil
}

func lookupMessage(ctx context.Context, registry replay.Registry, id replay.MessageID) (api.MessageResponse, error) {
	record, err := registry.Lookup(ctx, id)
	if err != nil {
		return api.MessageResponse{}, fmt.Errorf("replay lookup failed: %w", err)
	}
	return api.FromRecord(id, record), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
