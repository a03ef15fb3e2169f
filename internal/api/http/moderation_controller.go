package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/moderation"
	"github.com/gin-gonic/gin"
)

// Publisher fans an eviction out to every instance.
type Publisher func(ctx context.Context, eviction domain.Eviction) error

type ModerationController struct {
	evictor moderation.Evictor
	publish Publisher
	apiKey  string
}

// NewModerationController evicts locally unless publish is set, in which
// case the event goes through the shared channel and comes back to every
// instance's subscriber, this one included.
func NewModerationController(evictor moderation.Evictor, publish Publisher, apiKey string) *ModerationController {
	return &ModerationController{evictor: evictor, publish: publish, apiKey: apiKey}
}

func (c *ModerationController) Enabled() bool {
	return c.apiKey != ""
}

func (c *ModerationController) Authorize(ctx *gin.Context) {
	key := ctx.GetHeader("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(c.apiKey)) != 1 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}
	ctx.Next()
}

func (c *ModerationController) Evict(ctx *gin.Context) {
	type request struct {
		ParticipantID string `json:"participant_id" binding:"required_without=UserID"`
		UserID        string `json:"user_id" binding:"required_without=ParticipantID"`
		Action        string `json:"action" binding:"required,oneof=kick ban"`
		Reason        string `json:"reason" binding:"max=500"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	eviction := domain.Eviction{
		ParticipantID: domain.ParticipantID(req.ParticipantID),
		UserID:        req.UserID,
		Action:        domain.EvictAction(req.Action),
		Reason:        req.Reason,
	}

	if c.publish != nil {
		if err := c.publish(ctx.Request.Context(), eviction); err != nil {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusAccepted, gin.H{"status": "published"})
		return
	}

	n, err := c.evictor.Evict(ctx.Request.Context(), eviction)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"evicted": n})
}
