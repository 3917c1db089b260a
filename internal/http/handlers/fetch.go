package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	queuerepos "github.com/casepulse/casepulse-backend/internal/data/repos/queue"
	types "github.com/casepulse/casepulse-backend/internal/domain"
	"github.com/casepulse/casepulse-backend/internal/http/response"
	"github.com/casepulse/casepulse-backend/internal/ingest/pipeline"
	"github.com/casepulse/casepulse-backend/internal/platform/ctxutil"
	"github.com/casepulse/casepulse-backend/internal/platform/dbctx"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

type FetchHandler struct {
	log        *logger.Logger
	fetch      queuerepos.FetchQueueRepo
	dispatcher *pipeline.Dispatcher
}

func NewFetchHandler(
	log *logger.Logger,
	fetch queuerepos.FetchQueueRepo,
	dispatcher *pipeline.Dispatcher,
) *FetchHandler {
	return &FetchHandler{
		log:        log.With("handler", "FetchHandler"),
		fetch:      fetch,
		dispatcher: dispatcher,
	}
}

type createFetchRequest struct {
	RequestType   int16      `json:"request_type" binding:"required"`
	CaseID        *uuid.UUID `json:"case_id,omitempty"`
	DocumentID    *uuid.UUID `json:"document_id,omitempty"`
	CourtID       string     `json:"court_id,omitempty"`
	DocketNumber  string     `json:"docket_number,omitempty"`
	EntryNumStart *int       `json:"entry_num_start,omitempty"`
	EntryNumEnd   *int       `json:"entry_num_end,omitempty"`
	DateStart     *time.Time `json:"date_start,omitempty"`
	DateEnd       *time.Time `json:"date_end,omitempty"`
	ShowParties   bool       `json:"show_parties"`
}

// CreateFetch schedules an on-demand retrieval against the remote court
// records system, using the caller's cached session credentials.
func (h *FetchHandler) CreateFetch(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req createFetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	requestType := types.RequestType(req.RequestType)

	switch requestType {
	case types.FetchCase:
		if req.CaseID == nil && (req.CourtID == "" || req.DocketNumber == "") {
			response.RespondError(c, http.StatusBadRequest, "missing_case_reference",
				fmt.Errorf("case fetch needs either case_id or court_id plus docket_number"))
			return
		}
	case types.FetchDocument, types.FetchAttachmentPage:
		if req.DocumentID == nil {
			response.RespondError(c, http.StatusBadRequest, "missing_document_id", nil)
			return
		}
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_request_type",
			fmt.Errorf("unknown request type %d", req.RequestType))
		return
	}

	item := &types.FetchQueueItem{
		UserID:        rd.UserID,
		Type:          requestType,
		CaseID:        req.CaseID,
		DocumentID:    req.DocumentID,
		CourtID:       req.CourtID,
		DocketNumber:  req.DocketNumber,
		EntryNumStart: req.EntryNumStart,
		EntryNumEnd:   req.EntryNumEnd,
		DateStart:     req.DateStart,
		DateEnd:       req.DateEnd,
		ShowParties:   req.ShowParties,
		Status:        types.StatusEnqueued,
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.fetch.Create(dbc, item); err != nil {
		h.log.Error("Fetch item create failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "database_error", err)
		return
	}
	if _, err := h.dispatcher.DispatchFetch(dbc, item); err != nil {
		h.log.Error("Fetch dispatch failed", "item_id", item.ID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "dispatch_error", err)
		return
	}

	response.RespondAccepted(c, item)
}

// GetFetch returns the current state of one fetch queue item.
func (h *FetchHandler) GetFetch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	item, err := h.fetch.GetByID(dbctx.Context{Ctx: c.Request.Context()}, id)
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
