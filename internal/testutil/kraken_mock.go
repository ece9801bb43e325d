package testutil

import (
	"context"
	"errors"

	"github.com/kryptotracker/backend/internal/kraken"
)

// ErrMockNotFound is returned by mocks when no data is configured for a key.
var ErrMockNotFound = errors.New("no mock data configured")

// MockKrakenClient is a mock implementation of kraken.Client for testing.
// It returns predefined payloads instead of calling the exchange.
type MockKrakenClient struct {
	BalancesResult    map[string]string
	EarnResult        kraken.EarnAllocationsResult
	LedgersResult     kraken.LedgersResult
	TradesResult      kraken.TradesHistoryResult
	PairsResult       map[string]kraken.AssetPair
	Err               error
	LedgersStartTimes []int64
}

// Balances returns the configured balance payload.
func (m *MockKrakenClient) Balances(_ context.Context, _, _ string) (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.BalancesResult, nil
}

// EarnAllocations returns the configured staking payload.
func (m *MockKrakenClient) EarnAllocations(_ context.Context, _, _, _ string) (kraken.EarnAllocationsResult, error) {
	if m.Err != nil {
		return kraken.EarnAllocationsResult{}, m.Err
	}
	return m.EarnResult, nil
}

// Ledgers returns the configured ledger payload and records the start
// parameter so tests can assert incremental pulls.
func (m *MockKrakenClient) Ledgers(_ context.Context, _, _ string, start int64) (kraken.LedgersResult, error) {
	m.LedgersStartTimes = append(m.LedgersStartTimes, start)
	if m.Err != nil {
		return kraken.LedgersResult{}, m.Err
	}
	return m.LedgersResult, nil
}

// TradesHistory returns the configured trade fills.
func (m *MockKrakenClient) TradesHistory(_ context.Context, _, _ string) (kraken.TradesHistoryResult, error) {
	if m.Err != nil {
		return kraken.TradesHistoryResult{}, m.Err
	}
	return m.TradesResult, nil
}

// AssetPairs returns the configured pair metadata.
func (m *MockKrakenClient) AssetPairs(_ context.Context, _ []string) (map[string]kraken.AssetPair, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.PairsResult, nil
}
