package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/in4everyall/tennisclub-league/league"
	"github.com/in4everyall/tennisclub-league/middleware"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/services"
)

type stubMatchService struct {
	services.MatchService
	err         error
	gotLicense  string
	gotInput    models.MatchInput
	gotID       uuid.UUID
	gotPhase    string
	existsReply bool
}

func (s *stubMatchService) SubmitMatch(ctx context.Context, license string, input models.MatchInput) (*models.Match, error) {
	s.gotLicense, s.gotInput = license, input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: uuid.New(), PhaseCode: "2025-1", Player1License: input.Player1License, Player2License: input.Player2License, Status: models.MatchStatusPending}, nil
}

func (s *stubMatchService) ConfirmMatch(ctx context.Context, id uuid.UUID, license string) (*models.Match, error) {
	s.gotID, s.gotLicense = id, license
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: id, Status: models.MatchStatusConfirmed}, nil
}

func (s *stubMatchService) CancelMatch(ctx context.Context, id uuid.UUID, license string) (*models.Match, error) {
	s.gotID, s.gotLicense = id, license
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: id, Status: models.MatchStatusCancelled}, nil
}

func (s *stubMatchService) MatchesForPlayer(ctx context.Context, license, phase string) ([]models.MatchView, error) {
	s.gotLicense, s.gotPhase = license, phase
	return []models.MatchView{}, s.err
}

func (s *stubMatchService) AllMatchesForPlayer(ctx context.Context, license string) ([]models.MatchView, error) {
	s.gotLicense, s.gotPhase = license, ""
	return []models.MatchView{}, s.err
}

func (s *stubMatchService) ExistsPendingBetween(ctx context.Context, phase, p1, p2 string) (bool, error) {
	s.gotPhase = phase
	return s.existsReply, s.err
}

type stubAdminService struct {
	services.AdminService
	err      error
	gotPhase string
}

func (s *stubAdminService) ClosePhase(ctx context.Context, phase string) (*models.PhaseCloseResult, error) {
	s.gotPhase = phase
	if s.err != nil {
		return nil, s.err
	}
	return &models.PhaseCloseResult{ClosedPhase: phase, NextPhase: "2025-2"}, nil
}

func (s *stubAdminService) ConfirmAll(ctx context.Context, admin, phase string) (int64, error) {
	s.gotPhase = phase
	return 3, s.err
}

type stubRankingService struct {
	services.RankingService
	err      error
	gotGroup int
	gotPhase string
}

func (s *stubRankingService) StandingsForGroup(ctx context.Context, group int, phase string) ([]models.StandingRow, error) {
	s.gotGroup, s.gotPhase = group, phase
	if s.err != nil {
		return nil, s.err
	}
	return []models.StandingRow{{LicenseNumber: "P1", GroupNo: group, Points: 3, Position: 1}}, nil
}

func (s *stubRankingService) StandingsForPlayer(ctx context.Context, license, phase string) ([]models.StandingRow, error) {
	s.gotPhase = phase
	return []models.StandingRow{}, s.err
}

func serve(t *testing.T, method, pattern, target, body string, license string, role models.UserRole, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if license != "" {
		req = req.WithContext(middleware.WithClaims(req.Context(), license, role))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestSubmitMatchHandler(t *testing.T) {
	svc := &stubMatchService{}
	h := NewMatchHandler(svc)
	body := `{"player1_license":"P1","player2_license":"P2","winner_license":"P1","sets":[{"p1":6,"p2":3},{"p1":6,"p2":4},{"p1":null,"p2":null}]}`

	rec := serve(t, http.MethodPost, "/matches", "/matches", body, "P1", models.RolePlayer, h.SubmitMatch)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if svc.gotLicense != "P1" || svc.gotInput.Player2License != "P2" {
		t.Errorf("service got license=%q input=%+v", svc.gotLicense, svc.gotInput)
	}
	if p := svc.gotInput.Sets[1].P2; p == nil || *p != 4 {
		t.Errorf("second set not decoded: %+v", svc.gotInput.Sets[1])
	}
	if _, ok := decode(t, rec)["match"]; !ok {
		t.Error("response has no match field")
	}
}

func TestSubmitMatchHandlerRequiresIdentity(t *testing.T) {
	h := NewMatchHandler(&stubMatchService{})
	rec := serve(t, http.MethodPost, "/matches", "/matches", `{}`, "", "", h.SubmitMatch)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSubmitMatchHandlerRejectsUnknownFields(t *testing.T) {
	h := NewMatchHandler(&stubMatchService{})
	rec := serve(t, http.MethodPost, "/matches", "/matches", `{"surface":"clay"}`, "P1", models.RolePlayer, h.SubmitMatch)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{fmt.Errorf("%w: self play", services.ErrAddMatch), http.StatusBadRequest},
		{fmt.Errorf("%w: 6-5", league.ErrInvalidSetScore), http.StatusBadRequest},
		{fmt.Errorf("%w: wrong", league.ErrWinnerMismatch), http.StatusBadRequest},
		{services.ErrPhaseNotReady, http.StatusBadRequest},
		{services.ErrCancelMatch, http.StatusBadRequest},
		{services.ErrMatchAlreadyExists, http.StatusConflict},
		{services.ErrConfirmMatch, http.StatusConflict},
		{services.ErrMatchConflict, http.StatusConflict},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewMatchHandler(&stubMatchService{err: tt.err})
			body := `{"player1_license":"P1","player2_license":"P2","sets":[{"p1":6,"p2":3},{"p1":6,"p2":4},{}]}`
			rec := serve(t, http.MethodPost, "/matches", "/matches", body, "P1", models.RolePlayer, h.SubmitMatch)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection reset") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestConfirmMatchHandler(t *testing.T) {
	svc := &stubMatchService{}
	h := NewMatchHandler(svc)
	id := uuid.New()

	rec := serve(t, http.MethodPost, "/matches/{matchID}/confirm", "/matches/"+id.String()+"/confirm", "", "P2", models.RolePlayer, h.ConfirmMatch)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if svc.gotID != id || svc.gotLicense != "P2" {
		t.Errorf("service got id=%s license=%s", svc.gotID, svc.gotLicense)
	}

	rec = serve(t, http.MethodPost, "/matches/{matchID}/confirm", "/matches/not-a-uuid/confirm", "", "P2", models.RolePlayer, h.ConfirmMatch)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: status = %d, want 400", rec.Code)
	}
}

func TestCancelMatchHandlerForbidden(t *testing.T) {
	h := NewMatchHandler(&stubMatchService{err: services.ErrForbiddenOperation})
	rec := serve(t, http.MethodPost, "/admin/matches/{matchID}/cancel", "/admin/matches/"+uuid.NewString()+"/cancel", "", "P1", models.RolePlayer, h.CancelMatch)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestMyMatchesHandlerPhaseFilter(t *testing.T) {
	svc := &stubMatchService{}
	h := NewMatchHandler(svc)

	serve(t, http.MethodGet, "/matches/me", "/matches/me?phase=2025-1", "", "P1", models.RolePlayer, h.MyMatches)
	if svc.gotPhase != "2025-1" {
		t.Errorf("phase = %q, want 2025-1", svc.gotPhase)
	}
	serve(t, http.MethodGet, "/matches/me", "/matches/me", "", "P1", models.RolePlayer, h.MyMatches)
	if svc.gotPhase != "" {
		t.Errorf("phase = %q, want all phases", svc.gotPhase)
	}
}

func TestPendingExistsHandler(t *testing.T) {
	h := NewMatchHandler(&stubMatchService{existsReply: true})
	rec := serve(t, http.MethodGet, "/matches/pending", "/matches/pending?phase=2025-1&player1=P1&player2=P2", "", "P1", models.RolePlayer, h.PendingExists)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := string(decode(t, rec)["exists"]); got != "true" {
		t.Errorf("exists = %s, want true", got)
	}
}

func TestGroupStandingsHandler(t *testing.T) {
	svc := &stubRankingService{}
	h := NewRankingHandler(svc)

	rec := serve(t, http.MethodGet, "/standings/groups/{groupNo}", "/standings/groups/2?phase=2025-1", "", "P1", models.RolePlayer, h.GroupStandings)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotGroup != 2 || svc.gotPhase != "2025-1" {
		t.Errorf("service got group=%d phase=%s", svc.gotGroup, svc.gotPhase)
	}

	rec = serve(t, http.MethodGet, "/standings/groups/{groupNo}", "/standings/groups/zero?phase=2025-1", "", "P1", models.RolePlayer, h.GroupStandings)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid group: status = %d, want 400", rec.Code)
	}
}

func TestMyStandingsHandlerRequiresPhase(t *testing.T) {
	h := NewRankingHandler(&stubRankingService{})
	rec := serve(t, http.MethodGet, "/standings/me", "/standings/me", "", "P1", models.RolePlayer, h.MyStandings)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClosePhaseHandler(t *testing.T) {
	svc := &stubAdminService{}
	h := NewAdminHandler(svc)

	rec := serve(t, http.MethodPost, "/admin/phases/{phaseCode}/close", "/admin/phases/2025-1/close", "", "ADM", models.RoleAdmin, h.ClosePhase)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotPhase != "2025-1" {
		t.Errorf("phase = %q, want 2025-1", svc.gotPhase)
	}

	h = NewAdminHandler(&stubAdminService{err: fmt.Errorf("%w: 2 pending", services.ErrPhaseNotReady)})
	rec = serve(t, http.MethodPost, "/admin/phases/{phaseCode}/close", "/admin/phases/2025-1/close", "", "ADM", models.RoleAdmin, h.ClosePhase)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("pending matches: status = %d, want 400", rec.Code)
	}
}

func TestConfirmAllHandler(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{})
	rec := serve(t, http.MethodPost, "/admin/phases/{phaseCode}/confirm-all", "/admin/phases/2025-1/confirm-all", "", "ADM", models.RoleAdmin, h.ConfirmAll)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := string(decode(t, rec)["confirmed"]); got != "3" {
		t.Errorf("confirmed = %s, want 3", got)
	}
}
