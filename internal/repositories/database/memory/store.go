package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
)

type txKey struct{}

type rateKey struct {
	from, to string
	date     int64
}

type positionKey struct {
	vaultID, currency string
}

// state is everything the store holds. It is cloned at the start of every
// unit of work and swapped back when the work fails.
type state struct {
	accounts     map[string]domain.Account
	accountCodes map[string]string
	transactions map[string]domain.Transaction
	entries      []domain.Entry
	rates        map[rateKey]domain.FXRate
	vaults       map[string]domain.Vault
	positions    map[positionKey]domain.CurrencyPosition
	snapshots    []domain.FXValuationSnapshot
	sequence     int64
}

func newState() *state {
	return &state{
		accounts:     make(map[string]domain.Account),
		accountCodes: make(map[string]string),
		transactions: make(map[string]domain.Transaction),
		rates:        make(map[rateKey]domain.FXRate),
		vaults:       make(map[string]domain.Vault),
		positions:    make(map[positionKey]domain.CurrencyPosition),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.accountCodes {
		c.accountCodes[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.rates {
		c.rates[k] = v
	}
	for k, v := range s.vaults {
		c.vaults[k] = v
	}
	for k, v := range s.positions {
		c.positions[k] = v
	}
	c.entries = append([]domain.Entry(nil), s.entries...)
	c.snapshots = append([]domain.FXValuationSnapshot(nil), s.snapshots...)
	c.sequence = s.sequence
	return c
}

// Store is an in-process implementation of every repository port. A single mutex
// serialises units of work, which gives the same isolation the row locks give in Postgres.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

// RunInTx runs fn while holding the store lock. Any error returned by fn, or a panic,
// restores the state to what it was before fn started.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	backup := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = backup
		}
		s.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// with runs fn against the current state, taking the lock unless ctx already holds it.
func (s *Store) with(ctx context.Context, fn func(d *state) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}
