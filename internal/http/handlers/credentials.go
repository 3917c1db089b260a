package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/http/response"
	"github.com/casepulse/casepulse-backend/internal/platform/ctxutil"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// sessionTTL matches the remote system's own session lifetime.
const sessionTTL = 2 * time.Hour

type CredentialHandler struct {
	log   *logger.Logger
	creds redis.CredentialCache
}

func NewCredentialHandler(log *logger.Logger, creds redis.CredentialCache) *CredentialHandler {
	return &CredentialHandler{
		log:   log.With("handler", "CredentialHandler"),
		creds: creds,
	}
}

type putCredentialsRequest struct {
	Cookies  string `json:"cookies" binding:"required"`
	ClientIP string `json:"client_ip,omitempty"`
}

// PutCredentials caches the caller's logged-in court session so fetch tasks
// can act on their behalf.
func (h *CredentialHandler) PutCredentials(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req putCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Cookies) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_cookies", nil)
		return
	}

	err := h.creds.Put(c.Request.Context(), &redis.SessionCredentials{
		UserID:   rd.UserID,
		Cookies:  req.Cookies,
		ClientIP: req.ClientIP,
	}, sessionTTL)
	if err != nil {
		h.log.Error("Credential cache put failed", "user_id", rd.UserID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "cache_error", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "cached"})
}
