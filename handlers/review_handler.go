package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/confdesk/conference-system/middleware"
	"github.com/confdesk/conference-system/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	reviews, err := h.reviewService.ListAssigned(r.Context(), reviewerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reviews": reviews}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	reviewID, err := strconv.Atoi(chi.URLParam(r, "reviewID"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	review, err := h.reviewService.Get(r.Context(), reviewerID, reviewID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"review": review}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	reviewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	reviewID, err := strconv.Atoi(chi.URLParam(r, "reviewID"))
	if err != nil {
		notFoundResponse(w, r)
		return
	}

	var input services.SubmitReviewInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.reviewService.Submit(r.Context(), reviewerID, reviewID, input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "review submitted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
