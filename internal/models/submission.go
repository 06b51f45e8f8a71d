package models

import "time"

// SubmissionStatus represents the state of a work submission.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusAccepted SubmissionStatus = "accepted"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Submission represents one applicant's work product against a bounty.
type Submission struct {
	ID        string           `json:"id"`
	BountyID  string           `json:"bounty_id"`
	Applicant Principal        `json:"applicant"` // immutable once created
	Content   string           `json:"content"`   // text or pointer to the work artifact
	Status    SubmissionStatus `json:"status"`
	Created   time.Time        `json:"created"`
}
