// Package league holds the scoring, standings and promotion rules of the club league.
// Everything here is pure: callers load players and matches and persist the results.
package league

import (
	"errors"
	"fmt"

	"github.com/in4everyall/tennisclub-league/models"
)

var (
	ErrInvalidSetScore = errors.New("invalid set score")
	ErrWinnerMismatch  = errors.New("winner does not match the set scores")
)

const (
	maxSetGames         = 7
	setGames            = 6
	superTiebreakPoints = 10
)

// ValidateSets checks a best-of-three score. Sets 1 and 2 must be regular sets, set 3 may also
// be a first-to-10 super tiebreak. A set can only be informed when the previous one was played.
func ValidateSets(sets models.Sets) error {
	if err := validateSingleSet(sets[0], 1); err != nil {
		return err
	}

	if sets[1].Informed() {
		if !sets[0].Played() {
			return fmt.Errorf("%w: set 2 cannot be informed while set 1 is empty", ErrInvalidSetScore)
		}
		if err := validateSingleSet(sets[1], 2); err != nil {
			return err
		}
	}

	if sets[2].Informed() {
		if !sets[1].Played() {
			return fmt.Errorf("%w: set 3 cannot be informed while set 2 is empty", ErrInvalidSetScore)
		}
		if err := validateThirdSet(sets[2]); err != nil {
			return err
		}
	}

	return nil
}

func validateSingleSet(set models.SetScore, setNumber int) error {
	if !set.Informed() {
		return nil
	}
	if !set.Played() {
		return fmt.Errorf("%w: set %d must have both scores", ErrInvalidSetScore, setNumber)
	}

	a, b := *set.P1, *set.P2
	if a < 0 || b < 0 || a > maxSetGames || b > maxSetGames {
		return fmt.Errorf("%w: set %d is out of range (%d-%d)", ErrInvalidSetScore, setNumber, a, b)
	}
	if !isRegularSet(a, b) {
		return fmt.Errorf("%w: set %d cannot end %d-%d", ErrInvalidSetScore, setNumber, a, b)
	}
	return nil
}

// isRegularSet accepts 6-0..6-4, 7-5 and 7-6 in either order.
func isRegularSet(a, b int) bool {
	w, l := max(a, b), min(a, b)
	switch {
	case w == setGames && l <= setGames-2:
		return true
	case w == maxSetGames && (l == setGames-1 || l == setGames):
		return true
	}
	return false
}

func validateThirdSet(set models.SetScore) error {
	if !set.Played() {
		return fmt.Errorf("%w: set 3 must have both scores", ErrInvalidSetScore)
	}

	a, b := *set.P1, *set.P2
	if a <= maxSetGames && b <= maxSetGames {
		return validateSingleSet(set, 3)
	}

	w, l := max(a, b), min(a, b)
	switch {
	case l < 0:
		return fmt.Errorf("%w: set 3 super tiebreak has negative points", ErrInvalidSetScore)
	case w < superTiebreakPoints:
		return fmt.Errorf("%w: set 3 super tiebreak must reach %d points", ErrInvalidSetScore, superTiebreakPoints)
	case w == superTiebreakPoints && l > superTiebreakPoints-2:
		return fmt.Errorf("%w: set 3 super tiebreak %d-%d needs a two point margin", ErrInvalidSetScore, w, l)
	case w > superTiebreakPoints && (l < superTiebreakPoints-1 || w-l != 2):
		return fmt.Errorf("%w: set 3 super tiebreak %d-%d must end two points apart after %d-%d", ErrInvalidSetScore, w, l, superTiebreakPoints-1, superTiebreakPoints-1)
	}
	return nil
}
