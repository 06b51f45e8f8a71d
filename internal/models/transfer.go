package models

import "time"

// Transfer records one asset movement in the local ledger's append-only log.
type Transfer struct {
	ID      string    `json:"id"` // ULID
	Asset   string    `json:"asset"`
	From    Principal `json:"from"`
	To      Principal `json:"to"`
	Amount  int64     `json:"amount"`
	Memo    string    `json:"memo"` // e.g. the bounty ID the reward was paid for
	Created time.Time `json:"created"`
}
