package models

import "strings"

// Player is a league participant identified by license number.
type Player struct {
	LicenseNumber string  `json:"license_number"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	GroupNo       int     `json:"group_no"`
	PhaseCode     string  `json:"phase_code"`
	Phone         *string `json:"phone,omitempty"`
}

// FullName falls back to the license number when the player has no linked user names.
func (p Player) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.LicenseNumber
	}
	return name
}

// Reassignment records a group move produced when a phase is closed.
type Reassignment struct {
	LicenseNumber string `json:"license_number"`
	FromGroup     int    `json:"from_group"`
	ToGroup       int    `json:"to_group"`
}

// PlayerGroupItem is the admin roster row.
type PlayerGroupItem struct {
	LicenseNumber string  `json:"license_number"`
	FullName      string  `json:"full_name"`
	GroupNo       int     `json:"group_no"`
	PhaseCode     string  `json:"phase_code"`
	Phone         *string `json:"phone,omitempty"`
}
