package handlers

import (
	"errors"
	"log"
	"net/http"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type TemplateHandler struct {
	templates *services.TemplateService
	engine    processor.FormEngine
}

func NewTemplateHandler(templates *services.TemplateService, engine processor.FormEngine) *TemplateHandler {
	return &TemplateHandler{templates: templates, engine: engine}
}

type templateSummary struct {
	Kind   models.DocumentKind `json:"kind"`
	Title  string              `json:"title"`
	Name   string              `json:"name"`
	Fields int                 `json:"fields"`
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	summaries := lo.Map(h.templates.Descriptors(), func(d models.TemplateDescriptor, _ int) templateSummary {
		return templateSummary{Kind: d.Kind, Title: d.Kind.Title(), Name: d.Name, Fields: len(d.Fields)}
	})
	c.JSON(http.StatusOK, gin.H{"templates": summaries})
}

// GetFields returns the fields a template declares. With ?inspect=true the
// template document is opened and compared against the declaration.
func (h *TemplateHandler) GetFields(c *gin.Context) {
	kind, err := models.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	desc, err := h.templates.Descriptor(kind)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"kind":   desc.Kind,
		"name":   desc.Name,
		"fields": desc.Fields,
	}

	if c.Query("inspect") != "true" || h.engine == nil {
		c.JSON(http.StatusOK, response)
		return
	}

	data, err := h.templates.Load(c.Request.Context(), desc)
	if err != nil {
		log.Printf("Failed to load template %s: %v", desc.Name, err)
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrTemplateLoad) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": "Failed to load template"})
		return
	}
	form, err := h.engine.Open(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Template is not a fillable PDF: " + err.Error()})
		return
	}

	present := lo.Map(form.Fields(), func(f processor.FormField, _ int) string { return f.Name })
	declared := lo.FilterMap(desc.Fields, func(f models.TemplateField, _ int) (string, bool) {
		return f.Name, f.Kind != models.FieldSignature
	})

	response["document_fields"] = present
	response["missing"] = lo.Without(declared, present...)
	response["undeclared"] = lo.Without(present, declared...)
	c.JSON(http.StatusOK, response)
}
