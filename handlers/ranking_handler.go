package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/in4everyall/tennisclub-league/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rs services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rs}
}

// MyStandings godoc
// @Summary Standings of the caller's current group
// @Tags standings
// @Produce json
// @Param phase query string true "Phase code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Player not in that phase"
// @Security BearerAuth
// @Router /standings/me [get]
func (h *RankingHandler) MyStandings(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}
	phase := r.URL.Query().Get("phase")
	if phase == "" {
		badRequestResponse(w, r, errors.New("phase query parameter is required"))
		return
	}

	rows, err := h.rankingService.StandingsForPlayer(r.Context(), license, phase)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GroupStandings godoc
// @Summary Standings of a group, live or historical
// @Tags standings
// @Produce json
// @Param groupNo path int true "Group number"
// @Param phase query string true "Phase code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /standings/groups/{groupNo} [get]
func (h *RankingHandler) GroupStandings(w http.ResponseWriter, r *http.Request) {
	groupNo, err := getIntFromURL(r, "groupNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.rankingService.StandingsForGroup(r.Context(), groupNo, r.URL.Query().Get("phase"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PhaseStandings godoc
// @Summary Standings of every group of a phase
// @Tags admin
// @Produce json
// @Param phaseCode path string true "Phase code"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/phases/{phaseCode}/standings [get]
func (h *RankingHandler) PhaseStandings(w http.ResponseWriter, r *http.Request) {
	groups, err := h.rankingService.StandingsForPhase(r.Context(), chi.URLParam(r, "phaseCode"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
