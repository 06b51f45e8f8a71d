package models

// Principal identifies a caller, bounty owner, or applicant. The engine
// treats principals as opaque beyond equality; the host supplies them.
type Principal string

func (p Principal) String() string { return string(p) }
