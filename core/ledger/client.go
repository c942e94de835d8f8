// Package ledger defines the narrow contract the reward system has with the
// token distribution backend. The orchestrator only ever transfers; balance,
// fee estimation and address validation exist for the HTTP surface.
package ledger

import (
	"context"
	"math/big"

	"github.com/PREETHAM1590/waste-app/core/factory"
)

// TransferResult reports the outcome of one token transfer attempt.
type TransferResult struct {
	Success bool   `json:"success"`
	TxRef   string `json:"tx_ref,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FeeEstimate reports the expected cost of a transfer in the ledger's native
// denomination.
type FeeEstimate struct {
	Fee      *big.Int `json:"fee"`
	GasLimit uint64   `json:"gas_limit,omitempty"`
}

// Client moves reward tokens on the distribution backend. Transfer is
// idempotent-safe at the call level only; callers must not assume retries
// are deduplicated.
type Client interface {
	// Transfer sends amount tokens to recipient. A failed attempt is
	// reported through the result or the error; it is never retried here.
	Transfer(ctx context.Context, recipient string, amount int64, reason string) (TransferResult, error)
	// BalanceOf returns the token balance of an address.
	BalanceOf(ctx context.Context, address string) (int64, error)
	// EstimateFee predicts the cost of transferring amount to recipient.
	EstimateFee(ctx context.Context, recipient string, amount int64) (FeeEstimate, error)
	// IsValidAddress reports whether the address is well-formed for this
	// ledger.
	IsValidAddress(address string) bool
	// Close releases backend connections.
	Close() error
}

var clientRegistry = factory.NewRegistry[Client]()

// RegisterClient adds a ledger backend factory identified by name.
func RegisterClient(name string, f factory.Factory[Client]) error {
	return clientRegistry.Register(name, f)
}

// NewClient creates a Client from the provided configuration.
func NewClient(cfg factory.ModuleConfig) (Client, error) {
	return clientRegistry.Create(cfg)
}
