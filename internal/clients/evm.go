package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Wormhole core contract getters used to resolve guardian sets.
const coreABIJSON = `[{
	"inputs": [{"internalType": "uint32", "name": "index", "type": "uint32"}],
	"name": "getGuardianSet",
	"outputs": [{
		"components": [
			{"internalType": "address[]", "name": "keys", "type": "address[]"},
			{"internalType": "uint32", "name": "expirationTime", "type": "uint32"}
		],
		"internalType": "struct Structs.GuardianSet",
		"name": "",
		"type": "tuple"
	}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [],
	"name": "getCurrentGuardianSetIndex",
	"outputs": [{"internalType": "uint32", "name": "", "type": "uint32"}],
	"stateMutability": "view",
	"type": "function"
}]`

// Wrapped asset contract entry point.
const wrappedAssetABIJSON = `[{
	"inputs": [
		{"internalType": "string", "name": "asset", "type": "string"},
		{"internalType": "string", "name": "metadata", "type": "string"},
		{"internalType": "address", "name": "to", "type": "address"},
		{"internalType": "bytes32", "name": "messageHash", "type": "bytes32"}
	],
	"name": "mintWrapped",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

var (
	coreABI         = mustParseABI(coreABIJSON)
	wrappedAssetABI = mustParseABI(wrappedAssetABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("ABI parse error: %v", err))
	}
	return parsed
}

// evmBackend is the subset of ethclient.Client the EVM client needs.
type evmBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// EVMClient handles interactions with EVM-compatible blockchains
type EVMClient struct {
	client     evmBackend
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

// NewEVMClient creates a new client for EVM-compatible blockchains.
// An empty privateKeyHex yields a read-only client.
func NewEVMClient(logger *zap.Logger, rpcURL, privateKeyHex string) (*EVMClient, error) {
	client := &EVMClient{
		logger: logger.With(zap.String("component", "EVMClient")),
	}

	client.logger.Info("Connecting to EVM chain", zap.String("rpcURL", rpcURL))
	ethClient, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM node: %v", err)
	}
	client.client = ethClient

	if privateKeyHex == "" {
		return client, nil
	}

	// Parse private key
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}

	client.privateKey = privateKey
	client.address = crypto.PubkeyToAddress(privateKey.PublicKey)

	return client, nil
}

// GetAddress returns the public address for this client
func (c *EVMClient) GetAddress() common.Address {
	return c.address
}

// GuardianSetTuple mirrors Structs.GuardianSet of the core contract.
type GuardianSetTuple struct {
	Keys           []common.Address
	ExpirationTime uint32
}

// GetGuardianSet reads guardian set index from the Wormhole core contract.
func (c *EVMClient) GetGuardianSet(ctx context.Context, coreContract common.Address, index uint32) (*GuardianSetTuple, error) {
	data, err := coreABI.Pack("getGuardianSet", index)
	if err != nil {
		return nil, fmt.Errorf("ABI pack error: %v", err)
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &coreContract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("getGuardianSet call failed: %w", err)
	}

	values, err := coreABI.Unpack("getGuardianSet", out)
	if err != nil {
		return nil, fmt.Errorf("ABI unpack error: %v", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected getGuardianSet output arity %d", len(values))
	}

	set, ok := abi.ConvertType(values[0], new(GuardianSetTuple)).(*GuardianSetTuple)
	if !ok {
		return nil, fmt.Errorf("unexpected getGuardianSet output type %T", values[0])
	}

	c.logger.Debug("Fetched guardian set",
		zap.Uint32("index", index),
		zap.Int("keys", len(set.Keys)),
		zap.Uint32("expirationTime", set.ExpirationTime))

	return set, nil
}

// GetCurrentGuardianSetIndex reads the active guardian set index from the core contract.
func (c *EVMClient) GetCurrentGuardianSetIndex(ctx context.Context, coreContract common.Address) (uint32, error) {
	data, err := coreABI.Pack("getCurrentGuardianSetIndex")
	if err != nil {
		return 0, fmt.Errorf("ABI pack error: %v", err)
	}

	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &coreContract, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("getCurrentGuardianSetIndex call failed: %w", err)
	}

	var index uint32
	if err := coreABI.UnpackIntoInterface(&index, "getCurrentGuardianSetIndex", out); err != nil {
		return 0, fmt.Errorf("ABI unpack error: %v", err)
	}
	return index, nil
}

// MintWrapped calls mintWrapped on the wrapped asset contract and returns the transaction hash.
func (c *EVMClient) MintWrapped(ctx context.Context, targetContract common.Address, asset, metadata string, to common.Address, messageHash common.Hash) (string, error) {
	data, err := wrappedAssetABI.Pack("mintWrapped", asset, metadata, to, [32]byte(messageHash))
	if err != nil {
		return "", fmt.Errorf("ABI pack error: %v", err)
	}

	c.logger.Debug("Sending mintWrapped transaction",
		zap.String("contract", targetContract.Hex()),
		zap.String("asset", asset),
		zap.String("to", to.Hex()))

	return c.sendTransaction(ctx, targetContract, data)
}

// sendTransaction signs and sends an EIP-1559 transaction calling targetAddr with data.
func (c *EVMClient) sendTransaction(ctx context.Context, targetAddr common.Address, data []byte) (string, error) {
	if c.privateKey == nil {
		return "", fmt.Errorf("EVM client has no signing key")
	}

	// Get the latest nonce for our account
	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %v", err)
	}

	// Get the chain ID
	chainID, err := c.client.NetworkID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %v", err)
	}

	// Get the current base fee from the latest block header
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get latest block header: %v", err)
	}
	if header.BaseFee == nil {
		return "", fmt.Errorf("chain does not report a base fee")
	}

	// Use 2x base fee as max fee to handle fluctuations
	baseFee := header.BaseFee
	maxPriorityFeePerGas := big.NewInt(100000000) // 0.1 gwei tip
	maxFeePerGas := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFeePerGas.Add(maxFeePerGas, maxPriorityFeePerGas)

	c.logger.Debug("Gas fees calculated",
		zap.String("baseFee", baseFee.String()),
		zap.String("maxFeePerGas", maxFeePerGas.String()),
		zap.String("maxPriorityFeePerGas", maxPriorityFeePerGas.String()))

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: maxPriorityFeePerGas,
		GasFeeCap: maxFeePerGas,
		Gas:       3000000,
		To:        &targetAddr,
		Value:     big.NewInt(0),
		Data:      data,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %v", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %v", err)
	}

	return signedTx.Hash().Hex(), nil
}
