package http

import (
	"net/http"
	"strconv"

	"github.com/Gadfx/duhuze/internal/api/http/converter"
	"github.com/Gadfx/duhuze/internal/repository"
	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type HistoryController struct {
	matches repository.MatchRepository
}

func NewHistoryController(matches repository.MatchRepository) *HistoryController {
	return &HistoryController{matches: matches}
}

func (c *HistoryController) ListRecent(ctx *gin.Context) {
	limit := defaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	matches, err := c.matches.ListRecent(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"matches": converter.MatchesToApi(matches)})
}
