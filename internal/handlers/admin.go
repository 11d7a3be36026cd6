package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type AdminHandler struct {
	registrations *services.RegistrationService
	activityLogs  *services.ActivityLogService
	store         storage.ObjectStore
}

// NewAdminHandler builds the admin API. store may be nil; with one, stored
// contract links are re-signed when a registration is read.
func NewAdminHandler(registrations *services.RegistrationService, activityLogs *services.ActivityLogService, store storage.ObjectStore) *AdminHandler {
	return &AdminHandler{
		registrations: registrations,
		activityLogs:  activityLogs,
		store:         store,
	}
}

type PageResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// pagination reads ?page and ?limit, clamping limit to 1000.
func pagination(c *gin.Context) (page, limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	return page, limit, (page - 1) * limit
}

func pageResponse(items interface{}, total int64, page, limit int) PageResponse {
	return PageResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// ListRegistrations returns registrations with pagination, optionally
// filtered by ?status and ?email.
func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	page, limit, offset := pagination(c)

	regs, total, err := h.registrations.List(c.Request.Context(), services.RegistrationFilter{
		Status: c.Query("status"),
		Email:  c.Query("email"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registrations"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(regs, total, page, limit))
}

func (h *AdminHandler) GetRegistration(c *gin.Context) {
	reg, err := h.registrations.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch registration"})
		return
	}

	h.refreshURLs(c, reg)
	c.JSON(http.StatusOK, reg)
}

// refreshURLs replaces the recorded link of each remote contract with a
// freshly signed one, since the link issued at upload time may have expired.
func (h *AdminHandler) refreshURLs(c *gin.Context, reg *models.Registration) {
	if h.store == nil {
		return
	}
	for i := range reg.Documents {
		doc := &reg.Documents[i]
		if doc.Tier != string(storage.TierRemote) || doc.ObjectKey == "" {
			continue
		}
		url, err := h.store.SignedURL(c.Request.Context(), doc.ObjectKey, storage.SignedURLTTL)
		if err != nil {
			log.Printf("Warning: could not sign URL for %s: %v", doc.ObjectKey, err)
			continue
		}
		doc.URL = url
	}
}

// GetLogs returns activity logs with pagination, filtered by ?method or ?path.
func (h *AdminHandler) GetLogs(c *gin.Context) {
	page, limit, offset := pagination(c)

	logs, total, err := h.activityLogs.GetLogs(c.Request.Context(), services.LogFilter{
		Method: c.Query("method"),
		Path:   c.Query("path"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, pageResponse(logs, total, page, limit))
}

// GetLogStats counts the most recent requests by method, route and status.
func (h *AdminHandler) GetLogStats(c *gin.Context) {
	logs, total, err := h.activityLogs.GetLogs(c.Request.Context(), services.LogFilter{Limit: 1000})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests": total,
		"sampled":        len(logs),
		"methods":        lo.CountValuesBy(logs, func(l models.ActivityLog) string { return l.Method }),
		"routes":         lo.CountValuesBy(logs, func(l models.ActivityLog) string { return l.Route }),
		"status_codes":   lo.CountValuesBy(logs, func(l models.ActivityLog) int { return l.StatusCode }),
	})
}
