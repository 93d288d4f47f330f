package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
	"tallytalk/internal/review"
	"tallytalk/internal/services"
)

// ReviewHandler handles review session requests.
type ReviewHandler struct {
	reviewService services.ReviewServicer
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService services.ReviewServicer) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// UpdateItemRequest represents one edit to a review item. Omitted fields are
// untouched. Setting clear_category removes the category without picking a
// new one; category_id wins if both are sent.
type UpdateItemRequest struct {
	Amount        *int64  `json:"amount" binding:"omitempty,gt=0"`
	Description   *string `json:"description" binding:"omitempty,max=500"`
	Type          *string `json:"type" binding:"omitempty,transaction_type"`
	CategoryID    *string `json:"category_id"`
	ClearCategory bool    `json:"clear_category"`
}

// GetSession returns the current state of a review session
// @Summary     Get review session
// @Description Get the transcript, status, and items of a review session
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Success     200 {object} review.Session "Session state"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Session not found or expired"
// @Router      /review/sessions/{id} [get]
func (h *ReviewHandler) GetSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.reviewService.GetSession(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// UpdateItem applies one edit to a review item
// @Summary     Edit a review item
// @Description Update the amount, description, type, or category of one candidate
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Param       index path int true "Item index"
// @Param       request body UpdateItemRequest true "Fields to update"
// @Success     200 {object} review.Session "Updated session"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Session or item not found"
// @Failure     409 {object} ErrorResponse "Session not in a reviewable state"
// @Router      /review/sessions/{id}/items/{index} [patch]
func (h *ReviewHandler) UpdateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	index, err := parseIndex(c, "index")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	upd := review.ItemUpdate{
		AmountCents:   req.Amount,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
	}
	if req.Type != nil {
		t := models.TransactionType(*req.Type)
		upd.Type = &t
	}

	session, err := h.reviewService.UpdateItem(userID, c.Param("id"), index, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RemoveItem drops one item from a review session
// @Summary     Remove a review item
// @Description Drop one candidate from the session before confirming
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Param       index path int true "Item index"
// @Success     200 {object} review.Session "Updated session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Session or item not found"
// @Failure     409 {object} ErrorResponse "Session not in a reviewable state"
// @Router      /review/sessions/{id}/items/{index} [delete]
func (h *ReviewHandler) RemoveItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	index, err := parseIndex(c, "index")
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.reviewService.RemoveItem(userID, c.Param("id"), index)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Reconcile redoes category guesses for a session
// @Summary     Re-reconcile a session
// @Description Redo category guesses against the user's current categories, keeping manual picks
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Success     200 {object} review.Session "Updated session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Session not found or expired"
// @Router      /review/sessions/{id}/reconcile [post]
func (h *ReviewHandler) Reconcile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.reviewService.ReconcileSession(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// Confirm persists the session's items and closes the session
// @Summary     Confirm a review session
// @Description Save every remaining item as one atomic batch of transactions
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Success     201 {array} TransactionResponse "Saved transactions"
// @Failure     400 {object} ErrorResponse "Nothing to save"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Session not found or expired"
// @Failure     409 {object} ErrorResponse "Session not in a reviewable state"
// @Failure     500 {object} ErrorResponse "Save failed; session returned to reviewing"
// @Router      /review/sessions/{id}/confirm [post]
func (h *ReviewHandler) Confirm(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.reviewService.Confirm(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transactions": transactions})
}

// Cancel discards a review session
// @Summary     Cancel a review session
// @Description Discard the session without saving anything
// @Tags        review
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Session ID"
// @Success     204 "Session discarded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /review/sessions/{id} [delete]
func (h *ReviewHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.reviewService.Cancel(userID, c.Param("id"))
	c.Status(http.StatusNoContent)
}
