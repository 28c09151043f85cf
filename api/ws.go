package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/codecollab-io/codecollab/auth"
	"github.com/codecollab-io/codecollab/db"
	"github.com/codecollab-io/codecollab/log"
	"github.com/codecollab-io/codecollab/realtime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pingInterval keeps idle WebSocket connections alive through proxies
const pingInterval = 30 * time.Second

// ProjectWebSocket handles GET /ws?projectId=...
//
// The handshake is the connection authenticator: it validates the project id
// shape, resolves the project, and verifies the bearer token, in that order,
// exactly once. Each rejection carries a distinguishable code. Project
// resolution happens before token validation so identity errors report
// distinctly, but a missing project is still fatal before the room join.
func (h *Handlers) ProjectWebSocket(c *gin.Context) {
	projectID := c.Query("projectId")
	if uuid.Validate(projectID) != nil {
		RespondError(c, http.StatusBadRequest, ErrCodeInvalidProject, "Invalid projectId")
		return
	}

	project, err := db.GetProject(projectID)
	projectMissing := errors.Is(err, db.ErrNotFound)
	if err != nil && !projectMissing {
		log.Error().Err(err).Str("projectId", projectID).Msg("project lookup failed")
		RespondInternalError(c, "Failed to resolve project")
		return
	}

	token := bearerToken(c)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		RespondError(c, http.StatusUnauthorized, ErrCodeAuthRequired, "Authentication required")
		return
	}

	claims, err := auth.Verify(token)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, ErrCodeInvalidToken, "Invalid or expired token")
		return
	}

	if projectMissing {
		RespondError(c, http.StatusNotFound, ErrCodeProjectNotFound, "Project not found")
		return
	}

	// Authenticated: upgrade and join the project room.
	// Gin wraps the response writer; WebSocket needs the raw one for hijacking.
	var w http.ResponseWriter = c.Writer
	if unwrapper, ok := c.Writer.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = unwrapper.Unwrap()
	}

	log.MarkHijacked(c)

	conn, err := websocket.Accept(w, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin checks are handled by CORS at the app layer
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		log.Error().Err(err).Str("projectId", projectID).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Prevent middleware from writing headers on the hijacked connection
	c.Abort()

	// Gin's request context doesn't cancel when the WebSocket closes
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	client := realtime.NewClient(*claims, projectID, conn)
	h.Rooms.Join(client)
	defer h.Rooms.Leave(client)

	log.Info().
		Str("projectId", projectID).
		Str("project", project.Name).
		Str("userId", claims.UserID).
		Str("name", claims.Name).
		Msg("client connected")

	// Outbound pump: room broadcasts -> socket
	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-client.Send:
				if !ok {
					return // channel closed on leave
				}
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					if ctx.Err() == nil {
						log.Error().Err(err).Str("projectId", projectID).Msg("WebSocket write failed")
					}
					return
				}
			}
		}
	}()

	// Keepalive pings
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	pingDone := make(chan struct{})
	go func() {
		defer close(pingDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := conn.Ping(ctx); err != nil {
					log.Debug().Err(err).Msg("WebSocket ping failed")
					return
				}
			}
		}
	}()

	// Inbound loop: socket -> router
	for {
		msgType, msg, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusGoingAway ||
				closeStatus == websocket.StatusNormalClosure ||
				closeStatus == websocket.StatusNoStatusRcvd {
				log.Debug().Str("projectId", projectID).Int("closeStatus", int(closeStatus)).Msg("WebSocket closed normally")
			} else {
				log.Info().Err(err).Str("projectId", projectID).Msg("WebSocket read error")
			}
			cancel()
			break
		}

		if msgType != websocket.MessageText {
			continue
		}

		h.Router.HandleInbound(client, msg)
	}

	// Drop the client from its room before waiting on the pumps so pending
	// outbound sends are discarded rather than written to a dead socket.
	h.Rooms.Leave(client)
	<-sendDone
	<-pingDone
}
