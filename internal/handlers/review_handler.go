package handlers

import (
	"encoding/json"
	"net/http"

	"review-hub/internal/middleware"
	"review-hub/internal/pagination"
	"review-hub/internal/service"
)

// ReviewHandler handles review request endpoints
type ReviewHandler struct {
	reviewService *service.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// CommentRequest represents a new comment
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// Create handles review request creation
// @Summary Create a review request
// @Description Open a review request assigned to a reviewer qualified in the request's language
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateRequestInput true "Request payload"
// @Success 201 {object} models.ReviewRequest
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 422 {object} map[string]string "Reviewer not qualified"
// @Router /requests [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var input service.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.reviewService.Create(r.Context(), userID, input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, request)
}

// Get handles fetching one request with its answer and comments
// @Summary Get a review request
// @Tags Requests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} models.RequestDetail
// @Failure 404 {object} map[string]string "Request not found"
// @Router /requests/{id} [get]
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	detail, err := h.reviewService.Get(r.Context(), requestID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// Update handles request edits
// @Summary Update a review request
// @Description Rewrite the title and content. Only the requester may edit.
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body service.UpdateRequestInput true "New title and content"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not the requester"
// @Router /requests/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input service.UpdateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.reviewService.Update(r.Context(), requestID, userID, input); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Request updated"})
}

// Delete handles request deletion
// @Summary Delete a review request
// @Description Remove the request with its answer and comment thread. Only the requester may delete.
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not the requester"
// @Router /requests/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.reviewService.Delete(r.Context(), requestID, userID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Request deleted"})
}

// List handles the paged request listing
// @Summary List review requests
// @Tags Requests
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size"
// @Param sortBy query string false "Sort field (createdAt, title)"
// @Param isAsc query bool false "Ascending order"
// @Param query query string false "Title search"
// @Success 200 {object} pagination.Page[models.RequestSummary]
// @Router /requests [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.Parse(r, "createdAt", "title")

	page, err := h.reviewService.List(r.Context(), r.URL.Query().Get("query"), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// ListByLanguage handles the paged per-language listing
// @Summary List review requests for one language
// @Tags Requests
// @Produce json
// @Param language path string true "Language tag"
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size"
// @Param isAsc query bool false "Ascending order"
// @Success 200 {object} pagination.Page[models.RequestSummary]
// @Router /requests/languages/{language} [get]
func (h *ReviewHandler) ListByLanguage(w http.ResponseWriter, r *http.Request) {
	params := pagination.Parse(r, "createdAt", "title")

	page, err := h.reviewService.ListByLanguage(r.Context(), r.PathValue("language"), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// AddComment handles appending a comment to a request's thread
// @Summary Comment on a review request
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body CommentRequest true "Comment payload"
// @Success 201 {object} models.ReviewComment
// @Failure 404 {object} map[string]string "Request not found"
// @Router /requests/{id}/comments [post]
func (h *ReviewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
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

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.reviewService.AddComment(r.Context(), requestID, userID, req.Content)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}
