// Package engine implements the bounty/submission lifecycle: the permitted
// state transitions, the authorization rules gating each transition, and the
// invariants that must hold across the store.
//
// Bounty statuses move open -> in_progress -> completed (on an accepted
// submission), or open|in_progress -> cancelled (explicit owner
// cancellation). Submission statuses move pending -> accepted or
// pending -> rejected. Completed, cancelled, accepted, and rejected are
// terminal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peejay-git/stallions/internal/models"
	"github.com/peejay-git/stallions/internal/store"
)

// IDSource produces fresh collision-resistant identifiers.
type IDSource interface {
	NewID() (string, error)
}

// Transferrer moves a fixed amount of a named asset between principals. It
// fails if the source lacks sufficient balance or authorization.
type Transferrer interface {
	Transfer(ctx context.Context, asset string, from, to models.Principal, amount int64, memo string) error
}

// Engine executes bounty and submission operations against the store. All
// validation and authorization happens before any write; only
// AcceptSubmission touches more than one entity, and it invokes the reward
// transfer before committing state so a failed payment leaves the store
// unchanged.
type Engine struct {
	store    store.Store
	clock    Clock
	ids      IDSource
	transfer Transferrer
}

// New creates an Engine with explicit collaborators.
func New(s store.Store, clock Clock, ids IDSource, transfer Transferrer) *Engine {
	return &Engine{
		store:    s,
		clock:    clock,
		ids:      ids,
		transfer: transfer,
	}
}

// CreateBountyParams holds the inputs to CreateBounty.
type CreateBountyParams struct {
	Title        string
	Description  string
	Category     string
	RewardAmount int64
	RewardAsset  string
	Deadline     time.Time
	Skills       []string
}

// CreateBounty validates the parameters, persists a new open bounty owned by
// the caller, and returns it. Nothing is written when validation fails.
func (e *Engine) CreateBounty(ctx context.Context, caller models.Principal, p CreateBountyParams) (*models.Bounty, error) {
	now := e.clock.Now()

	if p.Title == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", ErrValidation)
	}
	if p.RewardAmount <= 0 {
		return nil, fmt.Errorf("reward amount must be positive: %w", ErrValidation)
	}
	if !p.Deadline.After(now) {
		return nil, fmt.Errorf("deadline must be in the future: %w", ErrValidation)
	}

	id, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate bounty id: %w", err)
	}

	b := &models.Bounty{
		ID:           id,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		RewardAmount: p.RewardAmount,
		RewardAsset:  p.RewardAsset,
		Owner:        caller,
		Deadline:     p.Deadline,
		Status:       models.BountyStatusOpen,
		Skills:       p.Skills,
		Created:      now,
		Updated:      now,
	}

	if err := e.store.CreateBounty(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBounty returns the bounty with the given ID.
func (e *Engine) GetBounty(ctx context.Context, id string) (*models.Bounty, error) {
	b, err := e.store.GetBounty(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return b, nil
}

// ListBounties returns all bounties in creation order.
func (e *Engine) ListBounties(ctx context.Context) ([]*models.Bounty, error) {
	return e.store.ListBounties(ctx)
}

// UpdateBountyParams holds the optional patch fields for UpdateBounty. A nil
// field is left unchanged; a provided field is validated with the same rules
// as creation before anything is written.
type UpdateBountyParams struct {
	Title        *string
	Description  *string
	Category     *string
	RewardAmount *int64
	RewardAsset  *string
	Deadline     *time.Time
	Status       *models.BountyStatus
	Skills       *[]string
}

// UpdateBounty applies the provided fields to the bounty. Only the owner may
// update. Status is applied as given without a transition check; the guarded
// transitions go through CancelBounty, SubmitWork, and AcceptSubmission.
func (e *Engine) UpdateBounty(ctx context.Context, caller models.Principal, id string, p UpdateBountyParams) (*models.Bounty, error) {
	b, err := e.store.GetBounty(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if caller != b.Owner {
		return nil, fmt.Errorf("only the owner can update the bounty: %w", ErrUnauthorized)
	}

	now := e.clock.Now()

	// Validate every provided field before mutating anything.
	if p.Title != nil && *p.Title == "" {
		return nil, fmt.Errorf("title cannot be empty: %w", ErrValidation)
	}
	if p.RewardAmount != nil && *p.RewardAmount <= 0 {
		return nil, fmt.Errorf("reward amount must be positive: %w", ErrValidation)
	}
	if p.Deadline != nil && !p.Deadline.After(now) {
		return nil, fmt.Errorf("deadline must be in the future: %w", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", *p.Status, ErrValidation)
	}

	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.RewardAmount != nil {
		b.RewardAmount = *p.RewardAmount
	}
	if p.RewardAsset != nil {
		b.RewardAsset = *p.RewardAsset
	}
	if p.Deadline != nil {
		b.Deadline = *p.Deadline
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Skills != nil {
		b.Skills = *p.Skills
	}
	b.Updated = now

	if err := e.store.UpdateBounty(ctx, b); err != nil {
		return nil, wrapStoreErr(err)
	}
	return b, nil
}

// CancelBounty sets the bounty's status to cancelled. Only the owner may
// cancel, and a completed bounty cannot be cancelled.
func (e *Engine) CancelBounty(ctx context.Context, caller models.Principal, id string) (*models.Bounty, error) {
	b, err := e.store.GetBounty(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if caller != b.Owner {
		return nil, fmt.Errorf("only the owner can cancel the bounty: %w", ErrUnauthorized)
	}
	if b.Status == models.BountyStatusCompleted {
		return nil, fmt.Errorf("cannot cancel a completed bounty: %w", ErrInvalidState)
	}

	b.Status = models.BountyStatusCancelled
	b.Updated = e.clock.Now()

	if err := e.store.UpdateBounty(ctx, b); err != nil {
		return nil, wrapStoreErr(err)
	}
	return b, nil
}

// SubmitWork creates a pending submission by the caller against the bounty.
// The bounty must be open or in progress and its deadline must not have
// passed. The first submission moves an open bounty to in progress. The same
// applicant may submit any number of times.
func (e *Engine) SubmitWork(ctx context.Context, caller models.Principal, bountyID, content string) (*models.Submission, error) {
	b, err := e.store.GetBounty(ctx, bountyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if b.Status != models.BountyStatusOpen && b.Status != models.BountyStatusInProgress {
		return nil, fmt.Errorf("bounty is not accepting submissions: %w", ErrInvalidState)
	}

	now := e.clock.Now()
	if now.After(b.Deadline) {
		return nil, fmt.Errorf("bounty deadline has passed: %w", ErrInvalidState)
	}

	id, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate submission id: %w", err)
	}

	sub := &models.Submission{
		ID:        id,
		BountyID:  bountyID,
		Applicant: caller,
		Content:   content,
		Status:    models.SubmissionStatusPending,
		Created:   now,
	}

	if err := e.store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	if b.Status == models.BountyStatusOpen {
		b.Status = models.BountyStatusInProgress
		b.Updated = now
		if err := e.store.UpdateBounty(ctx, b); err != nil {
			return nil, wrapStoreErr(err)
		}
	}

	return sub, nil
}

// ListSubmissions returns all submissions for the bounty in creation order.
// An unknown bounty ID yields an empty list, not an error.
func (e *Engine) ListSubmissions(ctx context.Context, bountyID string) ([]*models.Submission, error) {
	return e.store.ListSubmissions(ctx, bountyID)
}

// GetSubmission returns the submission with the given ID.
func (e *Engine) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := e.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return sub, nil
}

// AcceptSubmission marks the submission accepted, completes its bounty, and
// pays the reward from the owner to the applicant. Only the bounty's owner
// may accept, and the bounty must not already be completed or cancelled.
//
// The reward transfer runs before the status writes: a failed transfer
// leaves both records untouched, and the two status writes commit in a
// single store transaction.
func (e *Engine) AcceptSubmission(ctx context.Context, caller models.Principal, submissionID string) (*models.Submission, error) {
	sub, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	b, err := e.store.GetBounty(ctx, sub.BountyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if caller != b.Owner {
		return nil, fmt.Errorf("only the bounty owner can accept submissions: %w", ErrUnauthorized)
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("bounty is already %s: %w", b.Status, ErrInvalidState)
	}

	memo := "bounty reward: " + b.ID
	if err := e.transfer.Transfer(ctx, b.RewardAsset, b.Owner, sub.Applicant, b.RewardAmount, memo); err != nil {
		return nil, fmt.Errorf("pay reward: %w: %v", ErrTransfer, err)
	}

	sub.Status = models.SubmissionStatusAccepted
	b.Status = models.BountyStatusCompleted
	b.Updated = e.clock.Now()

	if err := e.store.AcceptSubmission(ctx, sub, b); err != nil {
		return nil, wrapStoreErr(err)
	}
	return sub, nil
}

// RejectSubmission marks a pending submission rejected. Only the bounty's
// owner may reject. The bounty's status is untouched, so further submissions
// stay possible until the deadline.
func (e *Engine) RejectSubmission(ctx context.Context, caller models.Principal, submissionID string) (*models.Submission, error) {
	sub, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	b, err := e.store.GetBounty(ctx, sub.BountyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	if caller != b.Owner {
		return nil, fmt.Errorf("only the bounty owner can reject submissions: %w", ErrUnauthorized)
	}
	if sub.Status != models.SubmissionStatusPending {
		return nil, fmt.Errorf("submission is already %s: %w", sub.Status, ErrInvalidState)
	}

	sub.Status = models.SubmissionStatusRejected
	if err := e.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, wrapStoreErr(err)
	}
	return sub, nil
}

// wrapStoreErr reclassifies store sentinels as engine error kinds.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return err
}
