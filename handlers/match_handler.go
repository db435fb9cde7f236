package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// SubmitMatch godoc
// @Summary Submit a match result
// @Tags matches
// @Description The caller must be player 1. Phase and group are taken from the caller's current assignment.
// @Accept json
// @Produce json
// @Param body body models.MatchInput true "Players, sets and optional winner"
// @Success 201 {object} map[string]interface{} "Pending match"
// @Failure 400 {object} map[string]string "Invalid score or players"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "A pending result already exists"
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) SubmitMatch(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}

	var input models.MatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitMatch(r.Context(), license, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmMatch godoc
// @Summary Confirm a pending match
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Not pending, or confirmed by its submitter"
// @Security BearerAuth
// @Router /matches/{matchID}/confirm [post]
func (h *MatchHandler) ConfirmMatch(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.matchService.ConfirmMatch)
}

// RejectMatch godoc
// @Summary Reject a pending match
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 409 {object} map[string]string "Not pending, or rejected by its submitter"
// @Security BearerAuth
// @Router /matches/{matchID}/reject [post]
func (h *MatchHandler) RejectMatch(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.matchService.RejectMatch)
}

func (h *MatchHandler) resolve(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id uuid.UUID, license string) (*models.Match, error)) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}
	id, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := action(r.Context(), id, license)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyMatches godoc
// @Summary List the caller's matches
// @Tags matches
// @Produce json
// @Param phase query string false "Phase code, all phases when omitted"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/me [get]
func (h *MatchHandler) MyMatches(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}

	var (
		matches []models.MatchView
		err     error
	)
	if phase := r.URL.Query().Get("phase"); phase != "" {
		matches, err = h.matchService.MatchesForPlayer(r.Context(), license, phase)
	} else {
		matches, err = h.matchService.AllMatchesForPlayer(r.Context(), license)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MyPhaseCodes godoc
// @Summary List the phases the caller has played in
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/me/phases [get]
func (h *MatchHandler) MyPhaseCodes(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}

	codes, err := h.matchService.PhaseCodesForPlayer(r.Context(), license)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phase_codes": codes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PendingExists godoc
// @Summary Check whether a pending result exists between two players
// @Tags matches
// @Produce json
// @Param phase query string true "Phase code"
// @Param player1 query string true "License of player 1"
// @Param player2 query string true "License of player 2"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /matches/pending [get]
func (h *MatchHandler) PendingExists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exists, err := h.matchService.ExistsPendingBetween(r.Context(), q.Get("phase"), q.Get("player1"), q.Get("player2"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"exists": exists}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdminSubmitMatch godoc
// @Summary Correct and confirm the latest match between two players
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.MatchInput true "Corrected result; phase defaults to player 1's current phase"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string "Not an admin"
// @Security BearerAuth
// @Router /admin/matches [post]
func (h *MatchHandler) AdminSubmitMatch(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}

	var input models.MatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Player1License == "" || input.Player2License == "" {
		badRequestResponse(w, r, errors.New("player1_license and player2_license are required"))
		return
	}

	match, err := h.matchService.AdminSubmitMatch(r.Context(), license, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelMatch godoc
// @Summary Cancel a match that is not confirmed
// @Tags admin
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Already confirmed or cancelled"
// @Failure 403 {object} map[string]string "Not an admin"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /admin/matches/{matchID}/cancel [post]
func (h *MatchHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.matchService.CancelMatch)
}
