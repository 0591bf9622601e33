package clients

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// PDA seeds for the wrapped asset program
var (
	SeedConfig      = []byte("config")
	SeedWrappedMint = []byte("wrapped_mint")
	SeedReceived    = []byte("received")
)

// Instruction discriminator: first 8 bytes of sha256("global:mint_wrapped")
var DiscriminatorMintWrapped = anchorDiscriminator("mint_wrapped")

func anchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

type solanaRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, transaction *solana.Transaction) (solana.Signature, error)
}

// SolanaClient handles interactions with Solana blockchain
type SolanaClient struct {
	client    solanaRPC
	payer     solana.PrivateKey
	programID solana.PublicKey
	logger    *zap.Logger
}

// NewSolanaClient creates a new Solana client for the wrapped asset program
func NewSolanaClient(logger *zap.Logger, rpcURL string, privateKeyBase58 string, programID string) (*SolanaClient, error) {
	client := &SolanaClient{
		logger: logger.With(zap.String("component", "SolanaClient")),
	}

	client.logger.Info("Connecting to Solana", zap.String("rpcURL", rpcURL))
	client.client = rpc.New(rpcURL)

	privKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	client.payer = privKey

	progID, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %v", err)
	}
	client.programID = progID

	client.logger.Info("Solana client initialized",
		zap.String("payer", client.payer.PublicKey().String()),
		zap.String("programID", client.programID.String()))

	return client, nil
}

// GetPayerAddress returns the payer's public key
func (c *SolanaClient) GetPayerAddress() solana.PublicKey {
	return c.payer.PublicKey()
}

// GetProgramID returns the wrapped asset program ID
func (c *SolanaClient) GetProgramID() solana.PublicKey {
	return c.programID
}

// DeriveConfigPDA derives the config PDA
func (c *SolanaClient) DeriveConfigPDA() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{SeedConfig}, c.programID)
}

// DeriveWrappedMintPDA derives the mint account of the wrapped collection.
// Seeds are capped at 32 bytes, so the asset descriptor is hashed.
func (c *SolanaClient) DeriveWrappedMintPDA(asset string) (solana.PublicKey, uint8, error) {
	assetHash := crypto.Keccak256([]byte(asset))
	return solana.FindProgramAddress([][]byte{SeedWrappedMint, assetHash}, c.programID)
}

// DeriveReceivedMessagePDA derives the received message PDA the program uses for its own replay check
func (c *SolanaClient) DeriveReceivedMessagePDA(emitterChain uint16, sequence uint64) (solana.PublicKey, uint8, error) {
	chainIDBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(chainIDBytes, emitterChain)
	sequenceBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(sequenceBytes, sequence)
	return solana.FindProgramAddress([][]byte{SeedReceived, chainIDBytes, sequenceBytes}, c.programID)
}

// MintWrappedParams are the arguments of the mint_wrapped instruction.
type MintWrappedParams struct {
	MessageHash  [32]byte
	EmitterChain uint16
	Sequence     uint64
	Asset        string
	Metadata     string
	Destination  solana.PublicKey
}

// encodeBorshString writes a u32 little-endian length followed by the bytes.
func encodeBorshString(buf []byte, s string) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	buf = append(buf, l[:]...)
	return append(buf, s...)
}

// BuildMintWrappedInstruction builds the mint_wrapped instruction
func (c *SolanaClient) BuildMintWrappedInstruction(p MintWrappedParams) (*solana.GenericInstruction, error) {
	configPDA, _, err := c.DeriveConfigPDA()
	if err != nil {
		return nil, fmt.Errorf("failed to derive config PDA: %v", err)
	}

	wrappedMintPDA, _, err := c.DeriveWrappedMintPDA(p.Asset)
	if err != nil {
		return nil, fmt.Errorf("failed to derive wrapped mint PDA: %v", err)
	}

	receivedMessagePDA, _, err := c.DeriveReceivedMessagePDA(p.EmitterChain, p.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to derive received message PDA: %v", err)
	}

	// discriminator + message hash + emitter_chain (u16) + sequence (u64) + asset + metadata
	data := make([]byte, 8+32+2+8, 8+32+2+8+4+len(p.Asset)+4+len(p.Metadata))
	copy(data[0:8], DiscriminatorMintWrapped)
	copy(data[8:40], p.MessageHash[:])
	binary.LittleEndian.PutUint16(data[40:42], p.EmitterChain)
	binary.LittleEndian.PutUint64(data[42:50], p.Sequence)
	data = encodeBorshString(data, p.Asset)
	data = encodeBorshString(data, p.Metadata)

	accounts := []*solana.AccountMeta{
		{PublicKey: c.payer.PublicKey(), IsSigner: true, IsWritable: true},      // payer
		{PublicKey: configPDA, IsSigner: false, IsWritable: false},              // config
		{PublicKey: wrappedMintPDA, IsSigner: false, IsWritable: true},          // wrapped_mint
		{PublicKey: p.Destination, IsSigner: false, IsWritable: true},           // destination
		{PublicKey: receivedMessagePDA, IsSigner: false, IsWritable: true},      // received_message
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},  // token_program
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false}, // system_program
	}

	return solana.NewInstruction(c.programID, accounts, data), nil
}

// SendMintWrappedTransaction builds, signs and sends a mint_wrapped transaction
func (c *SolanaClient) SendMintWrappedTransaction(ctx context.Context, p MintWrappedParams) (string, error) {
	c.logger.Debug("Building mint_wrapped transaction",
		zap.Uint16("emitterChain", p.EmitterChain),
		zap.Uint64("sequence", p.Sequence),
		zap.String("asset", p.Asset),
		zap.String("destination", p.Destination.String()))

	ix, err := c.BuildMintWrappedInstruction(p)
	if err != nil {
		return "", fmt.Errorf("failed to build instruction: %v", err)
	}

	recentBlockhash, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %v", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recentBlockhash.Value.Blockhash,
		solana.TransactionPayer(c.payer.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %v", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.payer.PublicKey()) {
			return &c.payer
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %v", err)
	}

	sig, err := c.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %v", err)
	}

	c.logger.Info("Transaction sent", zap.String("signature", sig.String()))

	return sig.String(), nil
}
