package services

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/in4everyall/tennisclub-league/events"
	"github.com/in4everyall/tennisclub-league/league"
	"github.com/in4everyall/tennisclub-league/models"
)

// EventPublisher pushes live updates to websocket rooms. *events.Hub satisfies it.
type EventPublisher interface {
	BroadcastToRoom(roomID string, message interface{})
}

// MetricsRecorder counts domain transitions. *metrics.Recorder satisfies it.
type MetricsRecorder interface {
	RecordMatchTransition(status string)
	RecordPhaseClosed(phaseCode string, reassignments int)
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func publish(p EventPublisher, eventType, phaseCode string, payload interface{}, at time.Time) {
	if p == nil || phaseCode == "" {
		return
	}
	p.BroadcastToRoom(events.PhaseRoom(phaseCode), events.Event{
		Type:       eventType,
		PhaseCode:  phaseCode,
		Payload:    payload,
		OccurredAt: at,
	})
}

func recordTransition(r MetricsRecorder, status models.MatchStatus) {
	if r != nil {
		r.RecordMatchTransition(string(status))
	}
}

// normalizeWinner treats a blank winner as absent.
func normalizeWinner(w *string) *string {
	if w == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*w)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// sortPhaseCodes orders codes chronologically, dropping duplicates. Malformed codes go last.
func sortPhaseCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b string) int {
		pa, errA := league.ParsePhaseCode(a)
		pb, errB := league.ParsePhaseCode(b)
		switch {
		case errA != nil && errB != nil:
			return cmp.Compare(a, b)
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		if c := cmp.Compare(pa.Year, pb.Year); c != 0 {
			return c
		}
		return cmp.Compare(pa.Sequence, pb.Sequence)
	})
	return out
}
