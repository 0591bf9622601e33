package clients

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testProgramID = "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"

type fakeSolanaRPC struct {
	sent []*solana.Transaction
}

func (f *fakeSolanaRPC) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{1, 2, 3}},
	}, nil
}

func (f *fakeSolanaRPC) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func newTestSolanaClient(t *testing.T) (*SolanaClient, *fakeSolanaRPC) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	client, err := NewSolanaClient(zap.NewNop(), "http://localhost:8899", key.String(), testProgramID)
	require.NoError(t, err)

	fake := &fakeSolanaRPC{}
	client.client = fake
	return client, fake
}

func TestNewSolanaClientRejectsBadKeys(t *testing.T) {
	_, err := NewSolanaClient(zap.NewNop(), "http://localhost:8899", "not-base58!", testProgramID)
	assert.Error(t, err)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = NewSolanaClient(zap.NewNop(), "http://localhost:8899", key.String(), "bad")
	assert.Error(t, err)
}

func TestDiscriminatorMintWrapped(t *testing.T) {
	sum := sha256.Sum256([]byte("global:mint_wrapped"))
	assert.Equal(t, sum[:8], DiscriminatorMintWrapped)
}

func TestBuildMintWrappedInstruction(t *testing.T) {
	client, _ := newTestSolanaClient(t)
	dest := solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")

	p := MintWrappedParams{
		MessageHash:  [32]byte{0xaa},
		EmitterChain: 2,
		Sequence:     9,
		Asset:        "collection123",
		Metadata:     "tokenA",
		Destination:  dest,
	}
	ix, err := client.BuildMintWrappedInstruction(p)
	require.NoError(t, err)

	assert.Equal(t, client.GetProgramID(), ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, DiscriminatorMintWrapped, data[:8])
	assert.Equal(t, byte(0xaa), data[8])
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[40:42]))
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(data[42:50]))
	assert.Equal(t, uint32(len("collection123")), binary.LittleEndian.Uint32(data[50:54]))
	assert.Equal(t, "collection123", string(data[54:67]))
	assert.Equal(t, uint32(len("tokenA")), binary.LittleEndian.Uint32(data[67:71]))
	assert.Equal(t, "tokenA", string(data[71:]))

	accounts := ix.Accounts()
	require.Len(t, accounts, 7)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, client.GetPayerAddress(), accounts[0].PublicKey)
	assert.Equal(t, dest, accounts[3].PublicKey)
	assert.Equal(t, solana.SystemProgramID, accounts[6].PublicKey)

	received, _, err := client.DeriveReceivedMessagePDA(2, 9)
	require.NoError(t, err)
	assert.Equal(t, received, accounts[4].PublicKey)
}

func TestWrappedMintPDAIsPerAsset(t *testing.T) {
	client, _ := newTestSolanaClient(t)
	a, _, err := client.DeriveWrappedMintPDA("collection123")
	require.NoError(t, err)
	b, _, err := client.DeriveWrappedMintPDA("collection124")
	require.NoError(t, err)
	again, _, err := client.DeriveWrappedMintPDA("collection123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}

func TestSendMintWrappedTransaction(t *testing.T) {
	client, fake := newTestSolanaClient(t)

	sig, err := client.SendMintWrappedTransaction(context.Background(), MintWrappedParams{
		Asset:       "collection123",
		Metadata:    "tokenA",
		Destination: solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"),
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	tx := fake.sent[0]
	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, tx.Signatures[0].String(), sig)
	assert.Equal(t, client.GetPayerAddress(), tx.Message.AccountKeys[0])
	assert.Equal(t, solana.Hash{1, 2, 3}, tx.Message.RecentBlockhash)
}
