// Package ledger provides the built-in token distribution backends: an
// in-memory mock for tests and local runs, and an EVM backend speaking to an
// ERC-20 contract.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	coreledger "github.com/PREETHAM1590/waste-app/core/ledger"
)

// MockClient is an in-memory ledger. It accepts any non-empty recipient,
// tracks balances and can be told to fail transfers for specific recipients.
type MockClient struct {
	mu       sync.Mutex
	balances map[string]int64
	failFor  map[string]bool
	history  []MockTransfer
	delay    time.Duration
}

// MockTransfer records one transfer accepted by the mock.
type MockTransfer struct {
	Recipient string
	Amount    int64
	Reason    string
	TxRef     string
	Time      time.Time
}

// NewMockClient returns an empty mock ledger.
func NewMockClient() *MockClient {
	return &MockClient{
		balances: make(map[string]int64),
		failFor:  make(map[string]bool),
	}
}

// FailTransfersTo makes transfers to recipient fail until cleared.
func (m *MockClient) FailTransfersTo(recipient string, fail bool) {
	m.mu.Lock()
	m.failFor[recipient] = fail
	m.mu.Unlock()
}

// SetDelay makes each transfer block for d before completing. Useful to
// exercise concurrent flush behaviour in tests.
func (m *MockClient) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// Transfers returns a copy of every transfer the mock accepted.
func (m *MockClient) Transfers() []MockTransfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockTransfer, len(m.history))
	copy(out, m.history)
	return out
}

func (m *MockClient) Transfer(ctx context.Context, recipient string, amount int64, reason string) (coreledger.TransferResult, error) {
	if recipient == "" {
		return coreledger.TransferResult{Error: "empty recipient"}, fmt.Errorf("empty recipient")
	}
	if amount <= 0 {
		return coreledger.TransferResult{Error: "non-positive amount"}, fmt.Errorf("non-positive amount %d", amount)
	}

	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return coreledger.TransferResult{Error: ctx.Err().Error()}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[recipient] {
		return coreledger.TransferResult{Success: false, Error: "simulated transfer failure"}, nil
	}
	ref := "mock-" + uuid.NewString()
	m.balances[recipient] += amount
	m.history = append(m.history, MockTransfer{
		Recipient: recipient,
		Amount:    amount,
		Reason:    reason,
		TxRef:     ref,
		Time:      time.Now(),
	})
	return coreledger.TransferResult{Success: true, TxRef: ref}, nil
}

func (m *MockClient) BalanceOf(_ context.Context, address string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[address], nil
}

func (m *MockClient) EstimateFee(_ context.Context, _ string, _ int64) (coreledger.FeeEstimate, error) {
	return coreledger.FeeEstimate{Fee: big.NewInt(0)}, nil
}

func (m *MockClient) IsValidAddress(address string) bool {
	return address != ""
}

func (m *MockClient) Close() error { return nil }
