package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"FIT-CONTRACTS/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactBody(t *testing.T) {
	body := `{"contractData":{"firstName":"Jane"},"signatures":{"client":"data:image/png;base64,iVBORw0KGgo="}}`
	got := RedactBody([]byte(body))
	assert.Equal(t, `{"contractData":{"firstName":"Jane"},"signatures":{"client":"[signature]"}}`, got)

	large := []byte(`{"notes":"` + strings.Repeat("x", 20000) + `"}`)
	got = RedactBody(large)
	assert.True(t, strings.HasPrefix(got, "[Large body: 20012 bytes]"))
	assert.Less(t, len(got), maxLoggedBody)

	accented := []byte(`{"notes":"x` + strings.Repeat("é", 10000) + `"}`)
	got = RedactBody(accented)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "é..."))
}

func TestLoggingMiddlewareCapturesRedactedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewActivityLogService(nil)

	var captured *models.ActivityLog
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		captured = svc.entry(c, c.Writer.Status(), time.Millisecond)
	})
	r.Use(svc.LoggingMiddleware())
	r.POST("/upload-contract", func(c *gin.Context) {
		SetRegistrationID(c, "reg-9")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/upload-contract",
		strings.NewReader(`{"signatures":{"client":"data:image/png;base64,AAAA"}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.NotNil(t, captured)
	assert.Equal(t, "/upload-contract", captured.Route)
	assert.Equal(t, "reg-9", captured.RegistrationID)
	assert.Equal(t, `{"signatures":{"client":"[signature]"}}`, captured.RequestBody)
}

func TestLoggingMiddlewareRejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewActivityLogService(nil)

	reached := false
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 32)
		c.Next()
	})
	r.Use(svc.LoggingMiddleware())
	r.POST("/upload-contract", func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/upload-contract", strings.NewReader(strings.Repeat("x", 4096)))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, reached)
}

func TestGetLogsFilters(t *testing.T) {
	db := openTestDB(t)
	svc := NewActivityLogService(db)
	now := time.Now()
	for i, l := range []models.ActivityLog{
		{ID: "1", Method: "POST", Path: "/upload-contract", StatusCode: 200},
		{ID: "2", Method: "GET", Path: "/api/templates/waiver/fields", StatusCode: 200},
		{ID: "3", Method: "POST", Path: "/api/create-checkout-session", StatusCode: 502},
	} {
		l.CreatedAt = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, db.Create(&l).Error)
	}

	logs, total, err := svc.GetLogs(context.Background(), LogFilter{Method: "post"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "3", logs[0].ID)

	_, total, err = svc.GetLogs(context.Background(), LogFilter{Path: "templates"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
