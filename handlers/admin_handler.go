package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/services"
)

type AdminHandler struct {
	decisionService services.DecisionService
}

func NewAdminHandler(decisionService services.DecisionService) *AdminHandler {
	return &AdminHandler{decisionService: decisionService}
}

func (h *AdminHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
	var statusFilter *models.PaperStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.PaperStatus(raw)
		if !status.IsValid() {
			badRequestResponse(w, r, errors.New("unknown paper status: "+raw))
			return
		}
		statusFilter = &status
	}

	papers, err := h.decisionService.ListPapers(r.Context(), statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"papers": papers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.decisionService.Dashboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"dashboard": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type decisionInput struct {
	Decision models.ReviewDecision `json:"decision"`
	Tier     *models.Tier          `json:"tier"`
}

func (h *AdminHandler) Decide(w http.ResponseWriter, r *http.Request) {
	paperID, err := strconv.Atoi(chi.URLParam(r, "paperID"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	var input decisionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	paper, err := h.decisionService.Decide(r.Context(), paperID, input.Decision, input.Tier)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"paper": paper}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bulkDecisionInput struct {
	PaperIDs []int                 `json:"paper_ids"`
	Decision models.ReviewDecision `json:"decision"`
	Tier     *models.Tier          `json:"tier"`
}

func (h *AdminHandler) BulkDecide(w http.ResponseWriter, r *http.Request) {
	var input bulkDecisionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.decisionService.BulkDecide(r.Context(), input.PaperIDs, input.Decision, input.Tier)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"updated": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	paperID, err := strconv.Atoi(chi.URLParam(r, "paperID"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	paper, err := h.decisionService.VerifyPayment(r.Context(), paperID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"paper": paper}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type bulkVerifyInput struct {
	PaperIDs []int `json:"paper_ids"`
}

func (h *AdminHandler) BulkVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var input bulkVerifyInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.decisionService.BulkVerifyPayment(r.Context(), input.PaperIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"updated": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
