package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crm-sync-api/internal/response"
	"crm-sync-api/internal/service"
)

// maxImportSize caps uploaded import files at 20 MiB
const maxImportSize = 20 << 20

// ImportHandler accepts contact export files
type ImportHandler struct {
	importService service.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// ImportContacts accepts a CSV upload in the "file" form field
func (h *ImportHandler) ImportContacts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "file form field is required")
		return
	}
	if fileHeader.Size > maxImportSize {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "file exceeds the 20MB limit")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "only .csv files are accepted")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "failed to open uploaded file")
		return
	}
	defer file.Close()

	result, err := h.importService.ImportContacts(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, result)
}
