package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockClientTransfer(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	res, err := m.Transfer(ctx, "wallet-1", 25, "test reward")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotEmpty(t, res.TxRef)

	bal, err := m.BalanceOf(ctx, "wallet-1")
	require.NoError(t, err)
	require.Equal(t, int64(25), bal)

	history := m.Transfers()
	require.Len(t, history, 1)
	require.Equal(t, "test reward", history[0].Reason)
}

func TestMockClientSimulatedFailure(t *testing.T) {
	m := NewMockClient()
	m.FailTransfersTo("wallet-1", true)

	res, err := m.Transfer(context.Background(), "wallet-1", 25, "r")
	require.NoError(t, err, "a simulated failure is a result, not an error")
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)

	bal, _ := m.BalanceOf(context.Background(), "wallet-1")
	require.Equal(t, int64(0), bal, "failed transfers must not credit")

	m.FailTransfersTo("wallet-1", false)
	res, err = m.Transfer(context.Background(), "wallet-1", 25, "r")
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestMockClientInvalidInput(t *testing.T) {
	m := NewMockClient()

	if _, err := m.Transfer(context.Background(), "", 10, "r"); err == nil {
		t.Fatal("empty recipient must error")
	}
	if _, err := m.Transfer(context.Background(), "wallet-1", 0, "r"); err == nil {
		t.Fatal("zero amount must error")
	}
	require.False(t, m.IsValidAddress(""))
	require.True(t, m.IsValidAddress("anything"))
}

func TestEVMConfigValidate(t *testing.T) {
	cfg := EVMConfig{}
	cfg.SetDefaults()
	require.Equal(t, 18, cfg.Decimals)
	require.Error(t, cfg.Validate())

	cfg = EVMConfig{
		RPCURL:       "http://localhost:8545",
		TokenAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		PrivateKey:   "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	}
	require.NoError(t, cfg.Validate())

	cfg.TokenAddress = "not-an-address"
	require.Error(t, cfg.Validate())
}
