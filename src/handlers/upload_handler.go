package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers"
	"github.com/username/tradenorm/src/security/validation"
	"github.com/username/tradenorm/src/services"
	"github.com/username/tradenorm/src/utils"
)

type UploadHandler struct {
	uploadService services.UploadService
	maxUploadSize int64
}

func NewUploadHandler(service services.UploadService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		uploadService: service,
		maxUploadSize: maxUploadSize,
	}
}

// uploadedFile is a validated multipart upload.
type uploadedFile struct {
	file     multipart.File
	filename string
	broker   string
	format   parsers.Format
}

// readUpload parses the form, checks size, type and magic bytes, and writes the
// error response itself when it returns false.
func (h *UploadHandler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadedFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return nil, false
	}

	broker := strings.TrimSpace(r.FormValue("broker"))
	if broker == "" {
		utils.SendJSONError(w, "Missing 'broker' field.", http.StatusBadRequest)
		return nil, false
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return nil, false
	}

	if fileHeader.Size > h.maxUploadSize {
		file.Close()
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return nil, false
	}

	format := parsers.DetectFormat(fileHeader.Filename)
	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType, string(format)); err != nil {
		file.Close()
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file, string(format))
	if err != nil {
		file.Close()
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	logger.L.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	return &uploadedFile{file: file, filename: fileHeader.Filename, broker: broker, format: format}, true
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer upload.file.Close()

	logger.L.Info("Processing upload request", "filename", upload.filename, "broker", upload.broker)
	result, err := h.uploadService.ProcessUpload(r.Context(), upload.file, upload.broker, upload.format)
	if err != nil {
		sendServiceError(w, err, upload.filename)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *UploadHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer upload.file.Close()

	result, err := h.uploadService.ValidateUpload(r.Context(), upload.file, upload.broker, upload.format)
	if err != nil {
		sendServiceError(w, err, upload.filename)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func sendServiceError(w http.ResponseWriter, err error, filename string) {
	switch {
	case errors.Is(err, parsers.ErrUnsupportedBroker):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrParsingFailed):
		logger.L.Warn("Upload processing failed due to parsing errors", "filename", filename, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error parsing file: %v", err), http.StatusBadRequest)
	case errors.Is(err, services.ErrProcessingFailed):
		logger.L.Warn("Upload processing failed during row processing", "filename", filename, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error processing rows in file: %v", err), http.StatusBadRequest)
	default:
		logger.L.Error("Internal error processing upload", "filename", filename, "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
	}
}

// HandleGetBatch returns a recent batch result, honoring If-None-Match.
func (h *UploadHandler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	result, err := h.uploadService.GetBatchResult(batchID)
	if err != nil {
		if errors.Is(err, services.ErrBatchNotFound) {
			utils.SendJSONError(w, "Batch not found or expired.", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "Error retrieving batch.", http.StatusInternalServerError)
		return
	}
	if result.Trades == nil {
		result.Trades = []models.CanonicalTrade{}
	}

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for batch result", "batch_id", batchID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for batch result", "batch_id", batchID)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, result, http.StatusOK)
}

type brokersResponse struct {
	Brokers []string          `json:"brokers"`
	Aliases map[string]string `json:"aliases"`
}

func HandleListBrokers(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, brokersResponse{Brokers: parsers.SupportedBrokers(), Aliases: parsers.Aliases}, http.StatusOK)
}
