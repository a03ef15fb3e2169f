package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/identity"
	"github.com/Gadfx/duhuze/internal/service"
	"github.com/Gadfx/duhuze/lib/logger/sl"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type SignalingOptions struct {
	AllowedOrigins  []string
	RequireIdentity bool
	SendBuffer      int
}

type SignalingController struct {
	matches  service.MatchInteractor
	identity *identity.Resolver
	opts     SignalingOptions
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewSignalingController(matches service.MatchInteractor, resolver *identity.Resolver, opts SignalingOptions, log *slog.Logger) *SignalingController {
	if resolver == nil {
		resolver = identity.NewResolver("")
	}
	return &SignalingController{
		matches:  matches,
		identity: resolver,
		opts:     opts,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || lo.Contains(opts.AllowedOrigins, "*") || lo.Contains(opts.AllowedOrigins, origin)
			},
		},
	}
}

// Connect upgrades the request and runs the participant until the socket
// closes. The token may come as ?token= or an Authorization header.
func (c *SignalingController) Connect(ctx *gin.Context) {
	const op = "http.signaling.connect"
	log := c.log.With(slog.String("op", op))

	token := ctx.Query("token")
	if token == "" {
		token = ctx.GetHeader("Authorization")
	}
	userID, err := c.identity.Resolve(token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if c.opts.RequireIdentity && userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrIdentityRequired.Error()})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Debug("upgrade failed", sl.Err(err))
		return
	}

	reqCtx := ctx.Request.Context()
	client := newClient(conn, c.opts.SendBuffer, log)

	p, err := c.matches.Connect(reqCtx, userID, client)
	if err != nil {
		client.reject(domain.ErrorMessage(rejectReason(err)))
		return
	}

	log = log.With(slog.String("participant_id", string(p.ID)))

	go client.writePump()
	client.readPump(func(msg domain.SignalMessage) {
		c.dispatch(reqCtx, p.ID, client, msg)
	})

	if err := c.matches.Disconnect(reqCtx, p.ID); err != nil {
		log.Warn("disconnect failed", sl.Err(err))
	}
}

func (c *SignalingController) dispatch(ctx context.Context, id domain.ParticipantID, client *wsClient, msg domain.SignalMessage) {
	var err error

	switch {
	case msg.Type == domain.TypeFindPartner:
		var request domain.MatchRequest
		if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
			if jsonErr := json.Unmarshal(msg.Payload, &request); jsonErr != nil {
				client.Deliver(domain.ErrorMessage("invalid find-partner payload"))
				return
			}
		}
		err = c.matches.FindPartner(ctx, id, request)
	case msg.Type == domain.TypeSkip || msg.Type == domain.TypeNext:
		err = c.matches.Skip(ctx, id)
	case msg.Type == domain.TypeStop:
		err = c.matches.Disconnect(ctx, id)
	case msg.Type.Relayable():
		err = c.matches.Relay(ctx, id, msg)
	default:
		client.Deliver(domain.ErrorMessage(service.ErrUnsupportedMessage.Error()))
		return
	}

	if err != nil {
		c.log.Warn("signal handling failed",
			slog.String("participant_id", string(id)),
			slog.String("type", string(msg.Type)),
			sl.Err(err),
		)
	}
}

func (c *SignalingController) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.matches.Stats())
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBanned):
		return "banned"
	case errors.Is(err, domain.ErrResourceExhausted):
		return "server is full"
	default:
		return "unavailable"
	}
}
