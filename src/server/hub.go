package server

import (
	"context"
	"encoding/json"
	"net/http"

	"telemetry-viewer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// clientMessage is a reply addressed to one client. It goes through the hub
// so a send never races with the hub closing that client.
type clientMessage struct {
	client  *Client
	payload interface{}
}

// handleWebsockets is the main Hub loop
func (s *ViewerServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			// Send the latest frame on connect
			s.frameMutex.RLock()
			if s.latestFrame != nil {
				client.send <- s.latestFrame
			}
			s.frameMutex.RUnlock()

		case client := <-s.unregister:
			s.drop(client)

		case msg := <-s.direct:
			if _, ok := s.clients[msg.client]; !ok {
				continue
			}
			select {
			case msg.client.send <- msg.payload:
			default:
				s.drop(msg.client)
			}

		case frame := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- frame:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.drop(client)
				}
			}
		}
	}
}

func (s *ViewerServer) drop(client *Client) {
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.connections.Store(int64(len(s.clients)))
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast caches frame as the latest and queues it for every client. It
// never blocks; when the queue is full the frame is only cached.
func (s *ViewerServer) Broadcast(frame *models.MDisplayFrame) {
	if frame == nil {
		return
	}

	s.frameMutex.Lock()
	s.latestFrame = frame
	s.frameMutex.Unlock()

	select {
	case s.broadcast <- frame:
	case <-s.quit:
	default:
		s.Logger.Debug("Broadcast queue full, frame %d kept as latest only", frame.Timestamp)
	}
}

// -----------------------------------------------------------------------------

// LatestFrame returns the last frame handed to Broadcast, or nil.
func (s *ViewerServer) LatestFrame() *models.MDisplayFrame {
	s.frameMutex.RLock()
	defer s.frameMutex.RUnlock()
	return s.latestFrame
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ViewerServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage runs one control command and replies with an ACK or
// ERROR carrying the resulting status.
func (s *ViewerServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MControlCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	ctx, cancel := s.commandContext(context.Background())
	defer cancel()

	result := models.MCommandResult{Type: "ACK", Command: cmd.Command}
	if err := s.executeCommand(ctx, cmd); err != nil {
		s.errHandler.Handle(err, "websocket command "+cmd.Command)
		result.Type = "ERROR"
		result.Error = err.Error()
	}
	if st, err := s.control.Status(ctx); err == nil {
		result.Status = st
	}

	select {
	case s.direct <- clientMessage{client: client, payload: result}:
	case <-s.quit:
	}
}
