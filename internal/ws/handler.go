package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/MohnishKJ/HelpWave/internal/registry"
)

// upgrader accepts any origin; cross-origin policy is enforced by the CORS
// middleware on the REST surface and guests are anonymous by design.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler upgrades an HTTP request to a WebSocket connection and starts the
// client pumps. sendBuffer sizes each connection's outbound queue.
func Handler(hub *Hub, reg *registry.Registry, sendBuffer int) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			log.Warn().Err(err).Str("component", "ws").Msg("websocket upgrade failed")
			return
		}
		NewClient(hub, reg, conn, sendBuffer).Run()
	}
}
