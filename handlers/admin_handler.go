package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/in4everyall/tennisclub-league/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(as services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: as}
}

// ClosePhase godoc
// @Summary Close a phase
// @Tags admin
// @Description Applies promotions and relegations and moves every player to the next phase of the year.
// @Produce json
// @Param phaseCode path string true "Phase code, e.g. 2025-1"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Pending matches remain or invalid code"
// @Failure 403 {object} map[string]string "Not an admin"
// @Security BearerAuth
// @Router /admin/phases/{phaseCode}/close [post]
func (h *AdminHandler) ClosePhase(w http.ResponseWriter, r *http.Request) {
	result, err := h.adminService.ClosePhase(r.Context(), chi.URLParam(r, "phaseCode"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PreviewMovements godoc
// @Summary Preview the group movements a close would apply
// @Tags admin
// @Produce json
// @Param phaseCode path string true "Phase code"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/phases/{phaseCode}/movements [get]
func (h *AdminHandler) PreviewMovements(w http.ResponseWriter, r *http.Request) {
	moves, err := h.adminService.ComputeGroupMovements(r.Context(), chi.URLParam(r, "phaseCode"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reassignments": moves}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvancePhase godoc
// @Summary Start the next phase of the current year without moving players
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /admin/phases/advance [post]
func (h *AdminHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	code, err := h.adminService.AdvancePhaseForCurrentYear(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phase_code": code}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MatchesSummary godoc
// @Summary Expected, played and missing matches of a phase
// @Tags admin
// @Produce json
// @Param phaseCode path string true "Phase code"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/phases/{phaseCode}/summary [get]
func (h *AdminHandler) MatchesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.adminService.MatchesSummary(r.Context(), chi.URLParam(r, "phaseCode"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmAll godoc
// @Summary Confirm every pending match of a phase
// @Tags admin
// @Produce json
// @Param phaseCode path string true "Phase code"
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /admin/phases/{phaseCode}/confirm-all [post]
func (h *AdminHandler) ConfirmAll(w http.ResponseWriter, r *http.Request) {
	license, ok := currentLicense(w, r)
	if !ok {
		return
	}

	n, err := h.adminService.ConfirmAll(r.Context(), license, chi.URLParam(r, "phaseCode"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"confirmed": n}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPlayers godoc
// @Summary Roster with current groups
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/players [get]
func (h *AdminHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.adminService.ListPlayers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PhaseCodes godoc
// @Summary All known phase codes, oldest first
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/phases [get]
func (h *AdminHandler) PhaseCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.adminService.PhaseCodes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"phase_codes": codes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
