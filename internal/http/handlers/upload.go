package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	queuerepos "github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/http/response"
	"github.com/casepulse/casepulse-backend/internal/ingest/pipeline"
	"github.com/casepulse/casepulse-backend/internal/platform/ctxutil"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// maxUploadBytes bounds a single multipart upload in memory.
const maxUploadBytes = 64 << 20

type UploadHandler struct {
	log        *logger.Logger
	bucket     gcp.BucketService
	processing queuerepos.ProcessingQueueRepo
	dispatcher *pipeline.Dispatcher
}

func NewUploadHandler(
	log *logger.Logger,
	bucket gcp.BucketService,
	processing queuerepos.ProcessingQueueRepo,
	dispatcher *pipeline.Dispatcher,
) *UploadHandler {
	return &UploadHandler{
		log:        log.With("handler", "UploadHandler"),
		bucket:     bucket,
		processing: processing,
		dispatcher: dispatcher,
	}
}

// CreateUpload accepts one blob plus routing metadata, stores the blob, and
// schedules the matching pipeline. Responds 202 with the queue item; the
// caller polls GetUpload for the terminal state.
func (h *UploadHandler) CreateUpload(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}

	courtID := strings.TrimSpace(c.PostForm("court_id"))
	if courtID == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_court_id", nil)
		return
	}
	uploadTypeRaw, err := strconv.Atoi(c.PostForm("upload_type"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload_type", err)
		return
	}
	uploadType := types.UploadType(uploadTypeRaw)
	if uploadType.String() == "unknown" {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload_type",
			fmt.Errorf("unknown upload type %d", uploadTypeRaw))
		return
	}

	var attachmentNumber *int
	if raw := strings.TrimSpace(c.PostForm("attachment_number")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_attachment_number", convErr)
			return
		}
		attachmentNumber = &n
	}
	debug, _ := strconv.ParseBool(c.PostForm("debug"))

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	if fh.Size > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	if len(data) > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", nil)
		return
	}

	storageKey := fmt.Sprintf("uploads/%s%s", uuid.New(), uploadExtension(uploadType))
	if err := h.bucket.Upload(c.Request.Context(), gcp.BucketCategoryUpload, storageKey, bytes.NewReader(data)); err != nil {
		h.log.Error("Upload blob store failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "storage_error", err)
		return
	}

	item := &types.ProcessingQueueItem{
		UploaderID:       rd.UserID,
		CourtID:          courtID,
		CaseSystemID:     strings.TrimSpace(c.PostForm("case_system_id")),
		DocSystemID:      strings.TrimSpace(c.PostForm("doc_system_id")),
		DocumentNumber:   strings.TrimSpace(c.PostForm("document_number")),
		AttachmentNumber: attachmentNumber,
		UploadType:       uploadType,
		StorageKey:       storageKey,
		Debug:            debug,
		Status:           types.StatusEnqueued,
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.processing.Create(dbc, item); err != nil {
		h.log.Error("Queue item create failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	if _, err := h.dispatcher.DispatchUpload(dbc, item); err != nil {
		h.log.Error("Upload dispatch failed", "item_id", item.ID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "dispatch_error", err)
		return
	}

	response.RespondAccepted(c, item)
}

// GetUpload returns the current state of one processing queue item.
func (h *UploadHandler) GetUpload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	item, err := h.processing.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	if item == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	response.RespondOK(c, item)
}

func uploadExtension(t types.UploadType) string {
	switch t {
	case types.UploadDocument:
		return ".pdf"
	case types.UploadDocumentArchive:
		return ".zip"
	default:
		return ".txt"
	}
}
