package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/comm"
)

// client serialises writes; a gorilla conn allows one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles a message sent by a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "ping":
		s.Send(socketId, &comm.WSMessage{Type: "pong", SocketId: socketId})
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

// Count returns the number of open sockets.
func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(key, value any) bool {
		n++
		return true
	})
	return n
}

func (s *Ws) Send(socketId string, m *comm.WSMessage) bool {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return false
	}
	if err := c.(*client).writeJSON(m); err != nil {
		log.Errorf("failed to write to socket %s: %s", socketId, err)
		return false
	}
	return true
}

// Broadcast sends m to every open socket and returns how many took it.
func (s *Ws) Broadcast(m *comm.WSMessage) int {
	sent := 0
	s.connMap.Range(func(key, value any) bool {
		if err := value.(*client).writeJSON(m); err != nil {
			log.Errorf("failed to write to socket %s: %s", key, err)
			return true
		}
		sent++
		return true
	})
	return sent
}
