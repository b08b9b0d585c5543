package realtime

import (
	"log"

	"campuslearn_server/models"

	socketio "github.com/googollee/go-socket.io"
)

// SocketServer is the live-channel transport. Socket.io rooms keyed by
// groupId hold the subscription state: join-group/leave-group drive room
// membership, and Publish broadcasts into a room. Disconnects drop all of
// a session's rooms without error.
type SocketServer struct {
	io *socketio.Server
}

// NewSocketServer wires the connection lifecycle and the client-originated
// events (join-group, leave-group, typing).
func NewSocketServer() *SocketServer {
	server := socketio.NewServer(nil)
	s := &SocketServer{io: server}

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join-group", func(c socketio.Conn, groupID string) {
		if groupID == "" {
			log.Println("❌ Invalid groupId in join-group request")
			return
		}
		log.Printf("👥 Session %s joined group %s\n", c.ID(), groupID)
		c.Join(groupID)
	})

	server.OnEvent("/", "leave-group", func(c socketio.Conn, groupID string) {
		if groupID == "" {
			return
		}
		c.Leave(groupID)
	})

	// Typing indicators are pure channel traffic: relayed to every OTHER
	// member of the room, never persisted. Clients expire the indicator
	// locally after 3 seconds since no stop event exists.
	server.OnEvent("/", "typing", func(c socketio.Conn, data map[string]string) {
		groupID := data["groupId"]
		userName := data["userName"]
		if groupID == "" || userName == "" {
			return
		}
		server.ForEach("/", groupID, func(other socketio.Conn) {
			if other.ID() != c.ID() {
				other.Emit(models.EventUserTyping, userName)
			}
		})
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
		server.LeaveAllRooms("/", c)
	})

	return s
}

// Publish broadcasts an event to every session in the group's room.
// Zero listeners is fine; the broadcast just reaches nobody.
func (s *SocketServer) Publish(groupID, event string, payload interface{}) {
	s.io.BroadcastToRoom("/", groupID, event, payload)
}

// IO exposes the underlying server for HTTP mounting and shutdown.
func (s *SocketServer) IO() *socketio.Server {
	return s.io
}
