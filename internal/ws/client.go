package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/MohnishKJ/HelpWave/internal/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Inbound socket events.
const (
	eventJoinRoom      = "join_room"
	eventLeaveRoom     = "leave_room"
	eventForceLeaveAll = "force_leave_all"
)

// inboundMessage is the envelope clients send over the socket.
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// roomEvent is the payload of the join/leave/force-leave events.
type roomEvent struct {
	RoomCode  string `json:"room_code"`
	GuestName string `json:"guest_name"`
}

// Client is one WebSocket connection. Its read pump translates inbound
// events into registry and hub calls; its write pump drains the send queue
// into the socket and keeps the connection alive with pings.
type Client struct {
	hub  *Hub
	reg  *registry.Registry
	conn *websocket.Conn

	send chan []byte
	done chan struct{}

	// joined maps room code to the guest names used on join, one entry per
	// join, so a dropped connection can be cleaned up as if it had left
	// every room explicitly — once for each join it performed.
	mu     sync.Mutex
	joined map[string][]string
}

// NewClient wraps an upgraded connection. sendBuffer sizes the outbound
// queue; when it fills the hub drops events for this client.
func NewClient(hub *Hub, reg *registry.Registry, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Client{
		hub:    hub,
		reg:    reg,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		joined: make(map[string][]string),
	}
}

// Run starts the client's read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// readPump pumps inbound events from the socket into the registry and hub.
// On exit it unsubscribes the connection everywhere and performs an implicit
// leave for every room this connection had joined.
func (c *Client) readPump() {
	defer c.cleanup()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("component", "ws").Msg("unexpected socket close")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Err(err).Str("component", "ws").Msg("malformed socket message")
			continue
		}
		c.dispatch(msg)
	}
}

// cleanup detaches a disconnected client: it is unsubscribed from every
// room, and an implicit leave is performed for each room it had joined, as
// if the guest had left explicitly. Runs exactly once, from the read pump.
func (c *Client) cleanup() {
	c.hub.dropClient(c)

	c.mu.Lock()
	joined := c.joined
	c.joined = make(map[string][]string)
	c.mu.Unlock()
	for code, guests := range joined {
		for _, guest := range guests {
			c.reg.Leave(code, guest)
		}
	}

	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// untrackJoin removes one join record for guest in room, mirroring the
// registry's first-occurrence leave semantics. Caller holds c.mu.
func (c *Client) untrackJoin(code, guest string) {
	guests := c.joined[code]
	for i, g := range guests {
		if g == guest {
			guests = append(guests[:i], guests[i+1:]...)
			break
		}
	}
	if len(guests) == 0 {
		delete(c.joined, code)
	} else {
		c.joined[code] = guests
	}
}

// dispatch routes one inbound event. Failures are isolated per event: a bad
// payload never tears down the connection.
func (c *Client) dispatch(msg inboundMessage) {
	var ev roomEvent
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn().Err(err).Str("component", "ws").Str("event", msg.Event).Msg("malformed event payload")
			return
		}
	}
	if ev.RoomCode == "" {
		log.Warn().Str("component", "ws").Str("event", msg.Event).Msg("event missing room_code")
		return
	}

	switch msg.Event {
	case eventJoinRoom:
		c.hub.Subscribe(c, ev.RoomCode)
		c.mu.Lock()
		c.joined[ev.RoomCode] = append(c.joined[ev.RoomCode], ev.GuestName)
		c.mu.Unlock()
		c.reg.Join(ev.RoomCode, ev.GuestName)

	case eventLeaveRoom:
		c.reg.Leave(ev.RoomCode, ev.GuestName)
		c.mu.Lock()
		c.untrackJoin(ev.RoomCode, ev.GuestName)
		remaining := len(c.joined[ev.RoomCode])
		c.mu.Unlock()
		if remaining == 0 {
			c.hub.Unsubscribe(c, ev.RoomCode)
		}

	case eventForceLeaveAll:
		// The registry broadcasts to the room before subscribers detach, so
		// every occupant (including this one) sees the event.
		c.reg.ForceLeaveAll(ev.RoomCode)
		c.mu.Lock()
		delete(c.joined, ev.RoomCode)
		c.mu.Unlock()

	default:
		log.Warn().Str("component", "ws").Str("event", msg.Event).Msg("unknown socket event")
	}
}

// writePump pumps messages from the send queue to the socket and pings the
// peer on a timer. It exits when the read pump signals done or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
