package service

import (
	"fmt"
	"sync"

	"lumina-server/models"

	"gorm.io/gorm"
)

// WalletStore persists ledger state. Every mutation is written through
// before the in-memory value is committed.
type WalletStore interface {
	Load() (balance int64, tier string, err error)
	SaveBalance(balance int64) error
	SaveTier(tier string) error
}

// Ledger owns the credit balance and subscription tier. All mutations are
// serialized behind a mutex so concurrent debits cannot jointly overdraw,
// and each mutation is durable before the call returns. On a persistence
// failure the in-memory state is left at its pre-call value.
type Ledger struct {
	mu      sync.Mutex
	balance int64
	tier    string
	store   WalletStore
}

func NewLedger(store WalletStore) (*Ledger, error) {
	balance, tier, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if !models.ValidTier(tier) {
		tier = models.TierFree
	}
	return &Ledger{balance: balance, tier: tier, store: store}, nil
}

// TryDebit atomically checks and subtracts amount. Elite tier always
// succeeds without touching the balance. A debit that would underflow is
// rejected with no side effects.
func (l *Ledger) TryDebit(amount int64) (bool, error) {
	if amount < 0 {
		return false, fmt.Errorf("negative debit amount: %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tier == models.TierElite {
		return true, nil
	}
	next := l.balance - amount
	if next < 0 {
		return false, nil
	}
	if err := l.store.SaveBalance(next); err != nil {
		return false, fmt.Errorf("persist debit: %w", err)
	}
	l.balance = next
	return true, nil
}

// Credit adds amount to the balance. Used for purchases, promotional grants
// and refunds. No upper bound.
func (l *Ledger) Credit(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative credit amount: %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balance + amount
	if err := l.store.SaveBalance(next); err != nil {
		return fmt.Errorf("persist credit: %w", err)
	}
	l.balance = next
	return nil
}

// Refund compensates a debit whose artifact was never produced. Elite debits
// never moved the balance, so there is nothing to give back.
func (l *Ledger) Refund(amount int64) error {
	l.mu.Lock()
	elite := l.tier == models.TierElite
	l.mu.Unlock()
	if elite || amount <= 0 {
		return nil
	}
	return l.Credit(amount)
}

func (l *Ledger) SetTier(tier string) error {
	if !models.ValidTier(tier) {
		return fmt.Errorf("unknown tier: %q", tier)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveTier(tier); err != nil {
		return fmt.Errorf("persist tier: %w", err)
	}
	l.tier = tier
	return nil
}

func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Tier() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tier
}

// CanAfford is an advisory read used by handlers to reject obviously
// underfunded requests before enqueueing. The authoritative check is the
// TryDebit inside the pipeline.
func (l *Ledger) CanAfford(amount int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tier == models.TierElite || l.balance >= amount
}

// gormWalletStore backs a Ledger with the wallet table.
type gormWalletStore struct {
	db *gorm.DB
	id string
}

func NewGormWalletStore(db *gorm.DB, id string) WalletStore {
	return &gormWalletStore{db: db, id: id}
}

func (s *gormWalletStore) Load() (int64, string, error) {
	w, err := models.GetOrCreateWallet(s.db, s.id, StartingBalance)
	if err != nil {
		return 0, "", err
	}
	return w.Balance, w.Tier, nil
}

func (s *gormWalletStore) SaveBalance(balance int64) error {
	return models.SaveWalletBalance(s.db, s.id, balance)
}

func (s *gormWalletStore) SaveTier(tier string) error {
	return models.SaveWalletTier(s.db, s.id, tier)
}
