package models

import "time"

// BountyStatus represents the lifecycle state of a bounty.
type BountyStatus string

const (
	BountyStatusOpen       BountyStatus = "open"
	BountyStatusInProgress BountyStatus = "in_progress"
	BountyStatusReview     BountyStatus = "review" // reserved; no engine transition produces it
	BountyStatusCompleted  BountyStatus = "completed"
	BountyStatusCancelled  BountyStatus = "cancelled"
)

// Valid reports whether s is a known bounty status.
func (s BountyStatus) Valid() bool {
	switch s {
	case BountyStatusOpen, BountyStatusInProgress, BountyStatusReview,
		BountyStatusCompleted, BountyStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s BountyStatus) Terminal() bool {
	return s == BountyStatusCompleted || s == BountyStatusCancelled
}

// Bounty represents a funded task posted by an owner.
type Bounty struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	RewardAmount int64        `json:"reward_amount"` // strictly positive, in the smallest unit of the asset
	RewardAsset  string       `json:"reward_asset"`  // asset/token reference, opaque to the engine
	Owner        Principal    `json:"owner"`         // immutable once created
	Deadline     time.Time    `json:"deadline"`      // submissions rejected after this
	Status       BountyStatus `json:"status"`
	Skills       []string     `json:"skills"`
	Created      time.Time    `json:"created"`
	Updated      time.Time    `json:"updated"`
}
