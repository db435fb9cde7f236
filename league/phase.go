package league

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidPhaseCode = errors.New("invalid phase code")

var phaseCodePattern = regexp.MustCompile(`^(\d{4})-(\d+)$`)

// PhaseCode is a competitive period, written "{year}-{sequence}".
type PhaseCode struct {
	Year     int
	Sequence int
}

func (p PhaseCode) String() string {
	return fmt.Sprintf("%d-%d", p.Year, p.Sequence)
}

func ParsePhaseCode(code string) (PhaseCode, error) {
	m := phaseCodePattern.FindStringSubmatch(code)
	if m == nil {
		return PhaseCode{}, fmt.Errorf("%w: %q", ErrInvalidPhaseCode, code)
	}
	year, _ := strconv.Atoi(m[1])
	seq, err := strconv.Atoi(m[2])
	if err != nil || seq < 1 {
		return PhaseCode{}, fmt.Errorf("%w: %q has no positive sequence", ErrInvalidPhaseCode, code)
	}
	return PhaseCode{Year: year, Sequence: seq}, nil
}

// NextPhaseCode mints the phase after the highest sequence found for year, or "{year}-1".
// Codes of other years and malformed codes do not take part.
func NextPhaseCode(existing []string, year int) PhaseCode {
	highest := 0
	for _, code := range existing {
		pc, err := ParsePhaseCode(code)
		if err != nil || pc.Year != year {
			continue
		}
		highest = max(highest, pc.Sequence)
	}
	return PhaseCode{Year: year, Sequence: highest + 1}
}
