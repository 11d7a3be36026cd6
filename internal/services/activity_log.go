package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"FIT-CONTRACTS/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxLoggedBody     = 10000
	registrationIDKey = "registration_id"
	requestBodyKey    = "request_body"
)

var dataURLPattern = regexp.MustCompile(`data:image/[a-zA-Z+.-]+;base64,[A-Za-z0-9+/=]+`)

type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// RedactBody replaces embedded signature images and caps the size of a
// captured request body.
func RedactBody(body []byte) string {
	s := dataURLPattern.ReplaceAllString(string(body), "[signature]")
	if len(s) > maxLoggedBody {
		cut := 100
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return fmt.Sprintf("[Large body: %d bytes] %s...", len(body), s[:cut])
	}
	return s
}

// SetRegistrationID links the current request's log entry to a registration.
func SetRegistrationID(c *gin.Context, id string) {
	c.Set(registrationIDKey, id)
}

func (s *ActivityLogService) entry(c *gin.Context, statusCode int, responseTime time.Duration) *models.ActivityLog {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	var requestBody string
	if body, exists := c.Get(requestBodyKey); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	now := time.Now()
	return &models.ActivityLog{
		ID:             uuid.New().String(),
		Method:         c.Request.Method,
		Route:          c.FullPath(),
		Path:           c.Request.URL.Path,
		UserAgent:      c.Request.UserAgent(),
		IPAddress:      clientIP,
		RequestBody:    requestBody,
		RegistrationID: c.GetString(registrationIDKey),
		StatusCode:     statusCode,
		ResponseTime:   responseTime.Milliseconds(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	if s.db == nil {
		return
	}
	activityLog := s.entry(c, statusCode, responseTime)

	// Save to database (don't block the request if this fails)
	go func() {
		if err := s.db.Create(activityLog).Error; err != nil {
			log.Printf("Failed to save activity log: %v", err)
		}
	}()
}

type LogFilter struct {
	Method string
	Path   string
	Limit  int
	Offset int
}

func (s *ActivityLogService) GetLogs(ctx context.Context, f LogFilter) ([]models.ActivityLog, int64, error) {
	if s.db == nil {
		return []models.ActivityLog{}, 0, nil
	}

	var logs []models.ActivityLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if f.Method != "" {
		query = query.Where("method = ?", strings.ToUpper(f.Method))
	}
	if f.Path != "" {
		query = query.Where("path LIKE ?", "%"+f.Path+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// LoggingMiddleware records every request after it has been handled.
// Multipart bodies are not captured.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if c.Request.Method == "POST" && c.Request.Body != nil {
			if strings.HasPrefix(c.ContentType(), "multipart/") {
				c.Set(requestBodyKey, fmt.Sprintf("[multipart body: %d bytes]", c.Request.ContentLength))
			} else {
				bodyBytes, err := io.ReadAll(c.Request.Body)
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
					s.LogRequest(c, http.StatusRequestEntityTooLarge, time.Since(start))
					return
				}
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > 0 {
					c.Set(requestBodyKey, RedactBody(bodyBytes))
				}
			}
		}

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
