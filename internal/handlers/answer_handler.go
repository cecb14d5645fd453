package handlers

import (
	"encoding/json"
	"net/http"

	"review-hub/internal/middleware"
	"review-hub/internal/pagination"
	"review-hub/internal/service"
)

// AnswerHandler handles answer and evaluation endpoints
type AnswerHandler struct {
	answerService *service.AnswerService
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(answerService *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
	}
}

// AnswerRequest represents answer content
type AnswerRequest struct {
	Content string `json:"content" validate:"required"`
}

// EvaluationRequest represents an evaluation score
type EvaluationRequest struct {
	Point float64 `json:"point"`
}

// Submit handles answer submission
// @Summary Answer a review request
// @Description Attach the single answer to a request. Only the assigned reviewer may answer.
// @Tags Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body AnswerRequest true "Answer payload"
// @Success 201 {object} models.ReviewAnswer
// @Failure 403 {object} map[string]string "Not the assigned reviewer"
// @Failure 409 {object} map[string]string "Request already answered"
// @Router /requests/{id}/answers [post]
func (h *AnswerHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.answerService.Submit(r.Context(), requestID, userID, req.Content)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, answer)
}

// Update handles answer edits
// @Summary Update an answer
// @Description Rewrite the answer's content. An evaluated answer is frozen.
// @Tags Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Answer ID"
// @Param request body AnswerRequest true "New content"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 409 {object} map[string]string "Answer already evaluated"
// @Router /answers/{id} [put]
func (h *AnswerHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	answerID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid answer ID")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.answerService.Update(r.Context(), answerID, userID, req.Content); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Answer updated"})
}

// Evaluate handles the one-time scoring of an answer
// @Summary Evaluate an answer
// @Description Score the answer once. The score feeds the reviewer's aggregate rating and a repeat call fails.
// @Tags Answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param answerId path int true "Answer ID"
// @Param request body EvaluationRequest true "Point in [0.0, 5.0]"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not the requester"
// @Failure 409 {object} map[string]string "Answer already evaluated"
// @Router /requests/{id}/answers/{answerId}/evaluation [post]
func (h *AnswerHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
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

	answerID, err := pathID(r, "answerId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid answer ID")
		return
	}

	var req EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.answerService.Evaluate(r.Context(), requestID, answerID, userID, req.Point); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Answer evaluated"})
}

// ListMine handles the reviewer's own answer listing
// @Summary List my answers
// @Tags Answers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size"
// @Param isAsc query bool false "Ascending order"
// @Success 200 {object} pagination.Page[models.AnswerWithUser]
// @Router /answers [get]
func (h *AnswerHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := pagination.Parse(r, "createdAt")

	page, err := h.answerService.ListByReviewer(r.Context(), userID, params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}
