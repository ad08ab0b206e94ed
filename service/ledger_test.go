package service

import (
	"errors"
	"sync"
	"testing"

	"lumina-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memWalletStore is an in-memory WalletStore with switchable write failures.
type memWalletStore struct {
	balance   int64
	tier      string
	failSaves bool
	saves     int
}

func (s *memWalletStore) Load() (int64, string, error) {
	return s.balance, s.tier, nil
}

func (s *memWalletStore) SaveBalance(balance int64) error {
	if s.failSaves {
		return errors.New("wallet table unavailable")
	}
	s.balance = balance
	s.saves++
	return nil
}

func (s *memWalletStore) SaveTier(tier string) error {
	if s.failSaves {
		return errors.New("wallet table unavailable")
	}
	s.tier = tier
	return nil
}

func newTestLedger(t *testing.T, balance int64, tier string) (*Ledger, *memWalletStore) {
	t.Helper()
	store := &memWalletStore{balance: balance, tier: tier}
	l, err := NewLedger(store)
	require.NoError(t, err)
	return l, store
}

func TestLedgerTryDebit(t *testing.T) {
	l, store := newTestLedger(t, 1000, models.TierFree)

	ok, err := l.TryDebit(900)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 100, l.Balance())
	assert.EqualValues(t, 100, store.balance)

	// would underflow: rejected, balance unchanged
	ok, err = l.TryDebit(200)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 100, l.Balance())

	// exact drain to zero is allowed
	ok, err = l.TryDebit(100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 0, l.Balance())
}

func TestLedgerTryDebitNegativeAmount(t *testing.T) {
	l, _ := newTestLedger(t, 1000, models.TierFree)

	ok, err := l.TryDebit(-1)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1000, l.Balance())
}

func TestLedgerEliteBypass(t *testing.T) {
	l, store := newTestLedger(t, 0, models.TierElite)

	ok, err := l.TryDebit(5000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 0, l.Balance())
	assert.Zero(t, store.saves, "elite debit must not touch persistence")

	// elite refunds are no-ops too
	require.NoError(t, l.Refund(5000))
	assert.EqualValues(t, 0, l.Balance())
}

func TestLedgerPersistFailureRollsBack(t *testing.T) {
	l, store := newTestLedger(t, 1000, models.TierFree)
	store.failSaves = true

	ok, err := l.TryDebit(300)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1000, l.Balance(), "in-memory balance must survive a failed write")

	assert.Error(t, l.Credit(500))
	assert.EqualValues(t, 1000, l.Balance())

	assert.Error(t, l.SetTier(models.TierPro))
	assert.Equal(t, models.TierFree, l.Tier())
}

func TestLedgerConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, _ := newTestLedger(t, 1000, models.TierFree)

	var wg sync.WaitGroup
	var granted sync.Map
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := l.TryDebit(300)
			assert.NoError(t, err)
			granted.Store(i, ok)
		}(i)
	}
	wg.Wait()

	wins := 0
	granted.Range(func(_, v interface{}) bool {
		if v.(bool) {
			wins++
		}
		return true
	})
	assert.Equal(t, 3, wins, "1000 credits fund exactly three 300-credit debits")
	assert.EqualValues(t, 100, l.Balance())
}

func TestLedgerRefundRestoresBalance(t *testing.T) {
	l, _ := newTestLedger(t, 1000, models.TierFree)

	ok, err := l.TryDebit(900)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Refund(900))
	assert.EqualValues(t, 1000, l.Balance())

	// zero and negative amounts are ignored
	require.NoError(t, l.Refund(0))
	require.NoError(t, l.Refund(-5))
	assert.EqualValues(t, 1000, l.Balance())
}

func TestLedgerSetTier(t *testing.T) {
	l, store := newTestLedger(t, 1000, models.TierFree)

	require.NoError(t, l.SetTier(models.TierPro))
	assert.Equal(t, models.TierPro, l.Tier())
	assert.Equal(t, models.TierPro, store.tier)

	assert.Error(t, l.SetTier("platinum"))
	assert.Equal(t, models.TierPro, l.Tier())
}

func TestLedgerUnknownTierFallsBackToFree(t *testing.T) {
	store := &memWalletStore{balance: 100, tier: "legacy"}
	l, err := NewLedger(store)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, l.Tier())
}

func TestLedgerCanAfford(t *testing.T) {
	l, _ := newTestLedger(t, 300, models.TierFree)
	assert.True(t, l.CanAfford(300))
	assert.False(t, l.CanAfford(301))

	elite, _ := newTestLedger(t, 0, models.TierElite)
	assert.True(t, elite.CanAfford(100000))
}
