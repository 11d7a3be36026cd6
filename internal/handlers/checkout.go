package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/services"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	payments *services.PaymentService
}

// NewCheckoutHandler accepts a nil service; every route then answers 503.
func NewCheckoutHandler(payments *services.PaymentService) *CheckoutHandler {
	return &CheckoutHandler{payments: payments}
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.payments.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		log.Printf("Failed to create checkout session: %v", err)
		if errors.Is(err, models.ErrInvalidSubmission) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *CheckoutHandler) GetSession(c *gin.Context) {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}

	sessionID := strings.TrimSpace(c.Param("sessionId"))
	status, err := h.payments.Verify(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidSubmission) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to fetch checkout session %s: %v", sessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch checkout session"})
		return
	}

	c.JSON(http.StatusOK, status)
}
