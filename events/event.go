// Package events fans league updates out to websocket subscribers of a phase.
package events

import "time"

const (
	MatchSubmitted       = "MATCH_SUBMITTED"
	MatchConfirmed       = "MATCH_CONFIRMED"
	MatchRejected        = "MATCH_REJECTED"
	MatchCancelled       = "MATCH_CANCELLED"
	MatchCorrected       = "MATCH_CORRECTED"
	MatchesBulkConfirmed = "MATCHES_BULK_CONFIRMED"
	PhaseClosed          = "PHASE_CLOSED"
)

// Event is the message written to subscribers.
type Event struct {
	Type       string      `json:"type"`
	PhaseCode  string      `json:"phase_code"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// PhaseRoom names the room that receives the events of a phase.
func PhaseRoom(phaseCode string) string {
	return "phase_" + phaseCode
}
