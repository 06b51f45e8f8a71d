// Package ledger provides a local asset ledger backed by the store. It
// implements the engine's Transferrer so a single binary can run the full
// bounty flow; deployments that settle rewards elsewhere substitute their
// own Transferrer.
package ledger

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/store"
)

// Ledger moves assets between principal accounts and keeps an append-only
// transfer log.
type Ledger struct {
	store store.Store
}

// New creates a Ledger over the given store.
func New(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// newULID generates a new ULID string for the transfer log.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Transfer moves amount of asset from one principal to another, recording
// the movement. Fails if the source balance cannot cover the amount.
func (l *Ledger) Transfer(ctx context.Context, asset string, from, to models.Principal, amount int64, memo string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	t := &models.Transfer{
		ID:      newULID(),
		Asset:   asset,
		From:    from,
		To:      to,
		Amount:  amount,
		Memo:    memo,
		Created: time.Now().UTC(),
	}
	return l.store.TransferAsset(ctx, t)
}

// Deposit credits an account out of thin air. Local-operation faucet; the
// engine never calls it.
func (l *Ledger) Deposit(ctx context.Context, principal models.Principal, asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive, got %d", amount)
	}
	return l.store.CreditAccount(ctx, principal, asset, amount)
}

// Balance returns the principal's balance for the asset (0 if no account).
func (l *Ledger) Balance(ctx context.Context, principal models.Principal, asset string) (int64, error) {
	return l.store.AccountBalance(ctx, principal, asset)
}

// History returns all transfers involving the principal, newest first.
func (l *Ledger) History(ctx context.Context, principal models.Principal) ([]*models.Transfer, error) {
	return l.store.ListTransfers(ctx, principal)
}
