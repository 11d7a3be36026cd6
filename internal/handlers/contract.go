package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"FIT-CONTRACTS/internal/middleware"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/services"

	"github.com/gin-gonic/gin"
)

// ContractRequest is the JSON form of POST /upload-contract. contractData
// may be an object or a JSON-encoded string.
type ContractRequest struct {
	ContractData json.RawMessage    `json:"contractData"`
	Signatures   *models.Signatures `json:"signatures,omitempty"`
	SessionID    string             `json:"sessionId,omitempty"`
}

type ContractResponse struct {
	Success        bool                       `json:"success"`
	RegistrationID string                     `json:"registrationId,omitempty"`
	Documents      []services.DocumentOutcome `json:"documents"`
	Message        string                     `json:"message"`
	Emails         services.NotifyResult      `json:"emails"`
}

type ContractHandler struct {
	delivery    *services.DeliveryService
	maxUploadMB int64
}

func NewContractHandler(delivery *services.DeliveryService, maxUploadMB int64) *ContractHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ContractHandler{delivery: delivery, maxUploadMB: maxUploadMB}
}

// multipart file fields accepted for each signature
var signatureFileFields = map[string][]string{
	"client":   {"clientSignature", "signature"},
	"initials": {"initialsSignature", "initials"},
	"guardian": {"guardianSignature", "guardian"},
}

func (h *ContractHandler) UploadContract(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.delivery.Deliver(c.Request.Context(), *req)
	if err != nil {
		status, message := deliveryErrorStatus(err)
		log.Printf("Registration rejected (%d): %v", status, err)
		c.JSON(status, gin.H{"success": false, "error": message})
		return
	}

	services.SetRegistrationID(c, result.RegistrationID)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusMultiStatus
	}

	c.JSON(status, ContractResponse{
		Success:        result.Success,
		RegistrationID: result.RegistrationID,
		Documents:      result.Documents,
		Message:        result.Message,
		Emails:         result.Emails,
	})
}

func deliveryErrorStatus(err error) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, models.ErrInvalidSubmission):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrSessionAlreadyUsed):
		return http.StatusConflict, "This payment has already been used for a registration"
	case errors.Is(err, models.ErrPaymentRequired):
		return http.StatusPaymentRequired, "Payment has not been completed for this registration"
	case errors.Is(err, models.ErrPaymentUnavailable):
		return http.StatusBadGateway, "Payment could not be verified, please try again"
	default:
		return http.StatusInternalServerError, "Failed to process registration"
	}
}

func (h *ContractHandler) parseRequest(c *gin.Context) (*services.DeliveryRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.parseMultipart(c)
	}

	var body ContractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	sub, err := decodeContractData(body.ContractData)
	if err != nil {
		return nil, err
	}
	if body.Signatures != nil {
		sub.Signatures = mergeSignatures(sub.Signatures, *body.Signatures)
	}
	return &services.DeliveryRequest{Submission: sub, SessionID: strings.TrimSpace(body.SessionID)}, nil
}

func (h *ContractHandler) parseMultipart(c *gin.Context) (*services.DeliveryRequest, error) {
	// in-memory threshold only; the body size is capped by middleware.BodyLimit
	if err := c.Request.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	sub, err := decodeContractData(json.RawMessage(c.PostForm("contractData")))
	if err != nil {
		return nil, err
	}

	var uploaded models.Signatures
	for slot, fields := range signatureFileFields {
		for _, field := range fields {
			fh, err := c.FormFile(field)
			if err != nil {
				continue
			}
			dataURL, err := readSignatureFile(fh)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			switch slot {
			case "client":
				uploaded.Client = dataURL
			case "initials":
				uploaded.Initials = dataURL
			case "guardian":
				uploaded.Guardian = dataURL
			}
			break
		}
	}
	sub.Signatures = mergeSignatures(sub.Signatures, uploaded)

	return &services.DeliveryRequest{Submission: sub, SessionID: strings.TrimSpace(c.PostForm("sessionId"))}, nil
}

func readSignatureFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return models.EncodeDataURL(raw)
}

func decodeContractData(raw json.RawMessage) (models.ClientSubmission, error) {
	var sub models.ClientSubmission
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return sub, fmt.Errorf("contractData is required")
	}

	// the registration UI posts contractData as a JSON string in multipart bodies
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return sub, fmt.Errorf("invalid contractData: %w", err)
		}
		raw = json.RawMessage(inner)
	}

	if err := json.Unmarshal(raw, &sub); err != nil {
		return sub, fmt.Errorf("invalid contractData: %w", err)
	}
	return sub, nil
}

// mergeSignatures prefers explicitly supplied signatures over the ones
// embedded in contractData.
func mergeSignatures(base, override models.Signatures) models.Signatures {
	if override.Client != "" {
		base.Client = override.Client
	}
	if override.Initials != "" {
		base.Initials = override.Initials
	}
	if override.Guardian != "" {
		base.Guardian = override.Guardian
	}
	return base
}
