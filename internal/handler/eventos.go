package handler

import (
	"context"
	"net/http"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/middleware"
	"restopos/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// EventSubscriber opens a per-connection subscription to one branch's order events.
type EventSubscriber interface {
	Suscribir(ctx context.Context, sucursalID uuid.UUID) *redis.PubSub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Sockets are authenticated by JWT, not by cookies, so any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type EventosHandler struct{ sub EventSubscriber }

func NewEventosHandler(sub EventSubscriber) *EventosHandler {
	return &EventosHandler{sub: sub}
}

// Stream godoc
// @Summary Feed de eventos de ordenes (websocket)
// @Description Reenvia orden.creada, orden.actualizada y orden.eliminada de una sucursal.
// @Tags ordenes
// @Security BearerAuth
// @Param sucursal_id query string true "Sucursal"
// @Router /v1/ordenes/eventos [get]
func (h *EventosHandler) Stream(c *gin.Context) {
	sucursalID, err := uuid.Parse(c.Query("sucursal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("sucursal_id invalido"))
		return
	}
	if !puedeVerSucursal(middleware.GetClaims(c), sucursalID) {
		c.JSON(http.StatusForbidden, apierror.New("Sin acceso a los eventos de esta sucursal"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.sub.Suscribir(ctx, sucursalID)
	defer pubsub.Close()

	// The reader only services control frames; it cancels the stream when the client goes away.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	msgs := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-msgs:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// puedeVerSucursal reports whether the token may follow a branch feed.
// Administrators see every branch; other roles only the one in their token.
func puedeVerSucursal(claims *middleware.JWTClaims, sucursalID uuid.UUID) bool {
	if claims == nil {
		return false
	}
	if claims.Rol == model.RolAdministrador {
		return true
	}
	return claims.SucursalID != nil && *claims.SucursalID == sucursalID.String()
}
