package models

// StandingRow is one player's aggregate within a group and phase. It is derived, never stored.
type StandingRow struct {
	LicenseNumber string `json:"license_number"`
	FullName      string `json:"full_name"`
	GroupNo       int    `json:"group_no"`
	MatchesPlayed int    `json:"matches_played"`
	MatchesWon    int    `json:"matches_won"`
	MatchesLost   int    `json:"matches_lost"`
	Points        int    `json:"points"`
	SetsWon       int    `json:"sets_won"`
	SetsLost      int    `json:"sets_lost"`
	GamesWon      int    `json:"games_won"`
	GamesLost     int    `json:"games_lost"`
	Position      int    `json:"position"`
}

func (r StandingRow) SetDifference() int {
	return r.SetsWon - r.SetsLost
}

func (r StandingRow) GameDifference() int {
	return r.GamesWon - r.GamesLost
}

// GroupStandings bundles the ranked rows of one group.
type GroupStandings struct {
	GroupNo   int           `json:"group_no"`
	PhaseCode string        `json:"phase_code"`
	Rows      []StandingRow `json:"rows"`
}

// MatchesSummary is the admin overview of a phase.
type MatchesSummary struct {
	PhaseCode       string      `json:"phase_code"`
	ExpectedMatches int         `json:"expected_matches"`
	ExistingMatches int         `json:"existing_matches"`
	Matches         []MatchView `json:"matches"`
	MissingPairings []Pairing   `json:"missing_pairings"`
}

// Pairing is a round-robin fixture between two players of a group.
type Pairing struct {
	GroupNo        int    `json:"group_no"`
	Player1License string `json:"player1_license"`
	Player2License string `json:"player2_license"`
}

// PhaseCloseResult describes what closing a phase changed.
type PhaseCloseResult struct {
	ClosedPhase   string         `json:"closed_phase"`
	NextPhase     string         `json:"next_phase"`
	Reassignments []Reassignment `json:"reassignments"`
	ArchiveURL    string         `json:"archive_url,omitempty"`
}
