package league

import (
	"fmt"
	"strings"

	"github.com/in4everyall/tennisclub-league/models"
)

// SetWins counts the sets each side won. Unplayed sets count for nobody.
func SetWins(sets models.Sets) (p1, p2 int) {
	for _, s := range sets {
		if !s.Played() {
			continue
		}
		switch {
		case *s.P1 > *s.P2:
			p1++
		case *s.P2 > *s.P1:
			p2++
		}
	}
	return p1, p2
}

// ValidateWinner cross-checks a declared winner against the sets. An absent winner always passes.
func ValidateWinner(player1, player2 string, winner *string, sets models.Sets) error {
	if winner == nil || strings.TrimSpace(*winner) == "" {
		return nil
	}

	p1Sets, p2Sets := SetWins(sets)
	if p1Sets == p2Sets {
		return fmt.Errorf("%w: no winner can be derived from %d-%d in sets", ErrWinnerMismatch, p1Sets, p2Sets)
	}

	expected := player2
	if p1Sets > p2Sets {
		expected = player1
	}
	if expected != *winner {
		return fmt.Errorf("%w: sets give the match to %s, not %s", ErrWinnerMismatch, expected, *winner)
	}
	return nil
}
