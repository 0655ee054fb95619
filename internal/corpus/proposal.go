// Package corpus models proposal documents and parses their RST header
// blocks into structured metadata.
package corpus

import "time"

// Well-known proposal statuses. The Status field is free text; these
// constants cover the values the upstream corpus actually uses.
const (
	StatusDraft      = "Draft"
	StatusAccepted   = "Accepted"
	StatusFinal      = "Final"
	StatusRejected   = "Rejected"
	StatusWithdrawn  = "Withdrawn"
	StatusSuperseded = "Superseded"
)

// Proposal is one versioned design document. Immutable for the duration of
// a processing run; the next corpus pull replaces it wholesale.
type Proposal struct {
	ID       int
	Title    string
	Status   string
	Type     string
	Created  *time.Time // nil when the Created header is absent or malformed
	Authors  []string
	Body     string // full raw document text, headers included
	Requires []int  // declared dependency IDs
	Replaces []int  // declared supersession IDs
}
