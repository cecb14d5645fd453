package handlers

import (
	"encoding/json"
	"net/http"

	"review-hub/internal/middleware"
	"review-hub/internal/pagination"
	"review-hub/internal/service"
)

// ReviewerHandler handles the reviewer directory and reassignment
type ReviewerHandler struct {
	reviewerService *service.ReviewerService
}

// NewReviewerHandler creates a new reviewer handler
func NewReviewerHandler(reviewerService *service.ReviewerService) *ReviewerHandler {
	return &ReviewerHandler{
		reviewerService: reviewerService,
	}
}

// ReassignRequest represents a reviewer handoff
type ReassignRequest struct {
	NewReviewerID uint `json:"new_reviewer_id" validate:"required"`
}

// Reassign handles handing a request off to another reviewer
// @Summary Reassign a request's reviewer
// @Description Hand the request off to another qualified reviewer. Only the current reviewer may hand off, and only before an answer exists.
// @Tags Reviewers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body ReassignRequest true "Replacement reviewer"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not the current reviewer"
// @Failure 409 {object} map[string]string "Request already answered"
// @Failure 422 {object} map[string]string "Candidate not qualified"
// @Router /requests/{id}/reviewer [put]
func (h *ReviewerHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	requestID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req ReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.reviewerService.Reassign(r.Context(), requestID, userID, req.NewReviewerID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Reviewer reassigned"})
}

// List handles the reviewer directory listing
// @Summary List reviewers
// @Description Page through reviewers with their languages and aggregate ratings, optionally narrowed to one language.
// @Tags Reviewers
// @Produce json
// @Param language query string false "Language filter"
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size"
// @Param sortBy query string false "Sort field (average, answerCount)"
// @Param isAsc query bool false "Ascending order"
// @Success 200 {object} pagination.Page[models.ReviewerSummary]
// @Router /reviewers [get]
func (h *ReviewerHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.Parse(r, "average", "answerCount")

	page, err := h.reviewerService.List(r.Context(), r.URL.Query().Get("language"), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}
