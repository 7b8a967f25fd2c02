// websocket/hub.go
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BetJor/plantilla-sub000/models"
	"github.com/BetJor/plantilla-sub000/utils"
)

type Client struct {
	userID   string
	userRole string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex
}

var hub = &Hub{
	clients:    make(map[*Client]bool),
	broadcast:  make(chan []byte),
	register:   make(chan *Client),
	unregister: make(chan *Client),
}

func GetHub() *Hub {
	return hub
}

func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Event is the envelope pushed to connected clients.
type Event struct {
	Type      string      `json:"type"` // ACTION_CREATED, ACTION_UPDATED, ACTION_STATUS_CHANGE, NOTIFICATION, AUDIT_ENTRY
	ActionID  string      `json:"actionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"userId,omitempty"`
	UserName  string      `json:"userName,omitempty"`
}

func broadcastEvent(ev Event) {
	ev.Timestamp = time.Now()
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal websocket event: %v", err)
		return
	}
	hub.broadcast <- data
}

// SendActionCreated broadcasts a new action.
func SendActionCreated(action models.Action, actor models.Actor) {
	broadcastEvent(Event{
		Type:     "ACTION_CREATED",
		ActionID: action.ID,
		Data:     action,
		UserID:   actor.ID,
		UserName: actor.Name,
	})
}

// SendActionUpdated broadcasts field-level edits.
func SendActionUpdated(action models.Action, actor models.Actor) {
	broadcastEvent(Event{
		Type:     "ACTION_UPDATED",
		ActionID: action.ID,
		Data:     action,
		UserID:   actor.ID,
		UserName: actor.Name,
	})
}

// SendStatusChange broadcasts an accepted transition.
func SendStatusChange(actionID string, oldStatus, newStatus models.ActionStatus, actor models.Actor) {
	broadcastEvent(Event{
		Type:     "ACTION_STATUS_CHANGE",
		ActionID: actionID,
		Data: map[string]interface{}{
			"oldStatus": oldStatus,
			"newStatus": newStatus,
		},
		UserID:   actor.ID,
		UserName: actor.Name,
	})
}

// SendNotification pushes a freshly dispatched notification.
func SendNotification(n models.Notification) {
	broadcastEvent(Event{
		Type:     "NOTIFICATION",
		ActionID: n.ActionID,
		Data:     n,
	})
}

// SendAuditEntry pushes a freshly appended audit entry.
func SendAuditEntry(e models.AuditEntry) {
	broadcastEvent(Event{
		Type:     "AUDIT_ENTRY",
		ActionID: e.ActionID,
		Data:     e,
	})
}

// HandleWebSocket upgrades the connection after validating the session
// token from the query string or Authorization header.
func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}
	}
	if tokenString == "" {
		http.Error(w, "Authentication token required", http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	client := &Client{
		userID:   claims.UserID,
		userRole: claims.Role,
		conn:     conn,
		send:     make(chan []byte, 256),
		hub:      hub,
	}
	client.hub.register <- client

	// Write pump
	go func() {
		defer func() {
			client.hub.unregister <- client
			conn.Close()
		}()
		for message := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	// Read pump with keepalive pings
	go func() {
		defer func() {
			client.hub.unregister <- client
			conn.Close()
		}()

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		go func() {
			for range ticker.C {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	log.Printf("WebSocket client connected: user=%s role=%s", claims.UserID, claims.Role)
}
