package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/services"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades authenticated requests to a live notification channel.
type WSHandler struct {
	connector live.Connector
	fanout    *services.Fanout
	config    live.ClientConfig
}

func NewWSHandler(connector live.Connector, fanout *services.Fanout, cfg live.ClientConfig) *WSHandler {
	return &WSHandler{connector: connector, fanout: fanout, config: cfg}
}

func (h *WSHandler) RegisterWSRoutes(g *echo.Group) {
	g.GET("/ws", h.ServeWS)
}

// ServeWS keeps the connection open until the client leaves. The current
// unread count is pushed right after connecting.
func (h *WSHandler) ServeWS(c echo.Context) error {
	me, err := currentIdentity(c)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l := logger.Ctx(c.Request().Context())
		l.Warn().Err(err).Uint(logger.FieldUserID, me.UserID).Msg("websocket upgrade failed")
		return nil
	}

	// the request context ends with this handler; the pumps outlive it
	ctx := context.WithoutCancel(c.Request().Context())

	client := live.NewClient(me.UserID, conn, h.config)
	h.connector.Connect(ctx, client)

	if count, err := h.fanout.UnreadCount(ctx, me.UserID); err == nil {
		if err := client.Send(ctx, live.UnreadCountEvent(count)); err != nil {
			l := logger.Ctx(ctx)
			l.Debug().Err(err).Uint(logger.FieldUserID, me.UserID).Msg("initial unread count not sent")
		}
	}

	go client.WritePump()
	go client.ReadPump(ctx, h.connector)
	return nil
}
