package handler

import (
	"net/http"

	"caixapos/internal/apierror"
	"caixapos/internal/dto"
	"caixapos/internal/middleware"
	"caixapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Create attaches a payment to the open register session.
// POST /v1/payments
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid user id"))
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel soft-cancels a payment, keeping the record for audit.
// POST /v1/payments/:id/cancel
func (h *PaymentsHandler) Cancel(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid payment id"))
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid user id"))
		return
	}

	resp, err := h.svc.Cancel(c.Request.Context(), paymentID, operatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Compensate marks a pending check as cleared by the bank.
// POST /v1/payments/:id/compensate
func (h *PaymentsHandler) Compensate(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid payment id"))
		return
	}
	resp, err := h.svc.CompensateCheck(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns all payments of a register session.
// GET /v1/payments?register_id=
func (h *PaymentsHandler) List(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Query("register_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("register_id query parameter required"))
		return
	}
	resp, err := h.svc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
