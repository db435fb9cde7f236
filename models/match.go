package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the stored lifecycle state of a league match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusCancelled MatchStatus = "cancelled"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusConfirmed, MatchStatusRejected, MatchStatusCancelled:
		return true
	}
	return false
}

// SetScore holds the games of one set. Both sides nil means the set was not played.
type SetScore struct {
	P1 *int `json:"p1"`
	P2 *int `json:"p2"`
}

func NewSetScore(p1, p2 int) SetScore {
	return SetScore{P1: &p1, P2: &p2}
}

// Played reports whether both values of the set are present.
func (s SetScore) Played() bool {
	return s.P1 != nil && s.P2 != nil
}

// Informed reports whether at least one value of the set is present.
func (s SetScore) Informed() bool {
	return s.P1 != nil || s.P2 != nil
}

// Sets is a best-of-three score, always three entries long.
type Sets [3]SetScore

type Match struct {
	ID                 uuid.UUID   `json:"id"`
	PhaseCode          string      `json:"phase_code"`
	GroupNoAtMatch     *int        `json:"group_no_at_match,omitempty"`
	Player1License     string      `json:"player1_license"`
	Player2License     string      `json:"player2_license"`
	WinnerLicense      *string     `json:"winner_license,omitempty"`
	Sets               Sets        `json:"sets"`
	SubmittedByLicense string      `json:"submitted_by_license"`
	Status             MatchStatus `json:"status"`
	Version            int         `json:"version"`
	ScheduledAt        *time.Time  `json:"scheduled_at,omitempty"`
	PlayedAt           *time.Time  `json:"played_at,omitempty"`
	UpdatedBy          *string     `json:"updated_by,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// MatchView is the read projection returned to clients, with display names resolved.
type MatchView struct {
	Match
	GroupNo     *int   `json:"group_no,omitempty"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	WinnerName  string `json:"winner_name,omitempty"`
}

// MatchInput is the payload of a result submission, from a player or an admin.
type MatchInput struct {
	PhaseCode      string     `json:"phase_code"`
	Player1License string     `json:"player1_license"`
	Player2License string     `json:"player2_license"`
	WinnerLicense  *string    `json:"winner_license,omitempty"`
	Sets           Sets       `json:"sets"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	PlayedAt       *time.Time `json:"played_at,omitempty"`
}

// MatchFilter narrows match listings. Zero values mean no filtering.
type MatchFilter struct {
	PhaseCode *string
	License   *string
	Status    *MatchStatus
}
