package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"kitchenrush/internal/game"
	"kitchenrush/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	snapshotPeriod = 100 * time.Millisecond
	maxMessageSize = 4 * 1024
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsCommand is a player input sent over the socket
type wsCommand struct {
	Type      string   `json:"type"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	StationID string   `json:"station_id,omitempty"`
	DX        float64  `json:"dx,omitempty"`
	DY        float64  `json:"dy,omitempty"`
	ChoiceID  string   `json:"choice_id,omitempty"`
}

// wsMessage is pushed to the client
type wsMessage struct {
	Type     string         `json:"type"` // snapshot, event, result or error
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Event    *game.Event    `json:"event,omitempty"`
	Result   interface{}    `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// wsConnection streams one session to one client
type wsConnection struct {
	conn    *websocket.Conn
	session *game.Session
	send    chan []byte
	done    chan struct{}
}

// StreamSession upgrades to a websocket that pushes snapshots and events and
// accepts player input
func (k *KitchenAPI) StreamSession(c *gin.Context) {
	s, ok := k.session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	ws := &wsConnection{
		conn:    conn,
		session: s,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	events, cancel := s.Subscribe(64)

	go ws.writePump(events, cancel)
	go ws.readPump()
}

// readPump pumps commands from the client into the session
func (c *wsConnection) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump is the only writer on the connection
func (c *wsConnection) writePump(events <-chan game.Event, cancel func()) {
	ping := time.NewTicker(pingPeriod)
	snapshots := time.NewTicker(snapshotPeriod)
	defer func() {
		ping.Stop()
		snapshots.Stop()
		cancel()
		c.conn.Close()
	}()

	if !c.writeSnapshot() {
		return
	}

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if !c.write(message) {
				return
			}
		case e, ok := <-events:
			if !ok {
				// session over: final state, then close
				c.writeSnapshot()
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if !c.writeJSON(wsMessage{Type: "event", Event: &e}) {
				return
			}
		case <-snapshots.C:
			if !c.writeSnapshot() {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) writeSnapshot() bool {
	snap := c.session.Snapshot()
	return c.writeJSON(wsMessage{Type: "snapshot", Snapshot: &snap})
}

func (c *wsConnection) writeJSON(msg wsMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return true
	}
	return c.write(data)
}

func (c *wsConnection) write(data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data) == nil
}

// handleMessage applies one client command to the session
func (c *wsConnection) handleMessage(message []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.queue(wsMessage{Type: "error", Error: "invalid command: " + err.Error()})
		return
	}

	var (
		result interface{}
		err    error
	)
	switch cmd.Type {
	case "move":
		if cmd.StationID != "" {
			err = c.session.MoveToStation(cmd.StationID)
		} else if cmd.X != nil && cmd.Y != nil {
			err = c.session.ClickAt(models.Point{X: *cmd.X, Y: *cmd.Y})
		} else {
			c.queue(wsMessage{Type: "error", Error: "move needs station_id or x and y"})
			return
		}
	case "keys":
		err = c.session.SetKeys(cmd.DX, cmd.DY)
	case "interact":
		err = c.session.Interact()
	case "answer":
		result, err = c.session.Answer(cmd.ChoiceID)
	case "mechanic_action":
		result, err = c.session.MechanicAction()
	case "mechanic_abandon":
		err = c.session.AbandonMechanic()
	case "dismiss_recipe":
		err = c.session.DismissRecipe()
	default:
		c.queue(wsMessage{Type: "error", Error: "unknown command: " + cmd.Type})
		return
	}

	if err != nil {
		c.queue(wsMessage{Type: "error", Error: err.Error()})
		return
	}
	if result != nil {
		c.queue(wsMessage{Type: "result", Result: result})
	}
}

// queue hands a message to the write pump, dropping it when the buffer is full
func (c *wsConnection) queue(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Println("WebSocket buffer full, dropping message")
	}
}
