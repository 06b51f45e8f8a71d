package store

import (
	"context"
	"errors"

	"github.com/peejay-git/stallions/internal/models"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("not found")

// ErrInsufficientBalance is returned by TransferAsset when the source
// account cannot cover the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Store defines the persistence interface for stallions. Bounties and
// submissions are keyed by ID; listing returns entities in creation order.
type Store interface {
	// Bounties
	CreateBounty(ctx context.Context, b *models.Bounty) error
	GetBounty(ctx context.Context, id string) (*models.Bounty, error)
	ListBounties(ctx context.Context) ([]*models.Bounty, error)
	UpdateBounty(ctx context.Context, b *models.Bounty) error

	// Submissions
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, bountyID string) ([]*models.Submission, error)
	UpdateSubmission(ctx context.Context, sub *models.Submission) error

	// AcceptSubmission persists the submission and bounty rows written by an
	// accepted submission in a single transaction, so a crash between the two
	// cannot leave a completed bounty without its accepted submission.
	AcceptSubmission(ctx context.Context, sub *models.Submission, b *models.Bounty) error

	// Ledger accounts and transfer log
	AccountBalance(ctx context.Context, principal models.Principal, asset string) (int64, error)
	CreditAccount(ctx context.Context, principal models.Principal, asset string, amount int64) error
	TransferAsset(ctx context.Context, t *models.Transfer) error
	ListTransfers(ctx context.Context, principal models.Principal) ([]*models.Transfer, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
