// Package agents holds the two single-shot model agents: the sectioner,
// which proposes content-section page ranges for a batch of pages, and the
// distiller, which compresses a section's pages into attributed paragraphs.
// Both compose CO-STAR prompts, require JSON object replies, and treat any
// structurally invalid reply as a hard, typed failure.
package agents

import "errors"

// ErrMalformedReply is returned when a model reply does not satisfy the
// required envelope: bad JSON, a missing field, an out-of-range section, or
// distilled text with no provenance markers. Jobs fail on it rather than
// guessing at intent.
var ErrMalformedReply = errors.New("malformed model reply")
