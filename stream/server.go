// Package stream broadcasts published frames to websocket clients, giving
// headless runs a render boundary. Clients receive packed binary frames;
// a client that cannot keep up skips frames instead of stalling the
// simulation loop.
package stream

import (
	"encoding/binary"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/plume/frame"
)

// Frame wire format, little endian:
//
//	uint64 seq
//	uint32 count
//	count * Stride float32 attribute records (visible particles only)
const headerSize = 8 + 4

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server accepts websocket clients and fans published frames out to them.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte

	packBuf []byte
	lastSeq uint64
}

// NewServer creates a frame streaming server.
func NewServer() *Server {
	return &Server{
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ListenAndServe serves the websocket endpoint at /ws on addr. It blocks,
// so callers run it in its own goroutine.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	slog.Info("stream server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, 3)

	s.mu.Lock()
	s.clients[conn] = send
	n := len(s.clients)
	s.mu.Unlock()
	slog.Info("stream client connected", "clients", n)

	go s.writer(conn, send)
	go s.reader(conn)
}

// writer drains the client's send channel until it closes.
func (s *Server) writer(conn *websocket.Conn, send chan []byte) {
	for data := range send {
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			s.drop(conn)
			return
		}
	}
}

// reader consumes (and discards) client messages to detect disconnects.
func (s *Server) reader(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.drop(conn)
			return
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if send, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(send)
	}
	n := len(s.clients)
	s.mu.Unlock()

	conn.Close()
	slog.Info("stream client disconnected", "clients", n)
}

// Broadcast packs the frame and queues it to every client. A frame already
// broadcast (same sequence number) is skipped, and a client with a full
// queue skips this frame rather than blocking the caller.
func (s *Server) Broadcast(f *frame.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) == 0 || f.Seq == s.lastSeq {
		return
	}
	s.lastSeq = f.Seq

	data := s.pack(f)

	// Each client gets its own copy: the pack buffer is reused next call.
	for _, send := range s.clients {
		msg := make([]byte, len(data))
		copy(msg, data)
		select {
		case send <- msg:
		default:
			// slow client, skip this frame
		}
	}
}

// pack serializes visible particles into the reusable pack buffer.
func (s *Server) pack(f *frame.Frame) []byte {
	slots := len(f.Data) / frame.Stride

	need := headerSize + slots*frame.Stride*4
	if cap(s.packBuf) < need {
		s.packBuf = make([]byte, need)
	}
	buf := s.packBuf[:need]

	count := uint32(0)
	off := headerSize
	for i := 0; i < slots; i++ {
		base := i * frame.Stride
		if f.Data[base+frame.OffOpacity] <= 0 {
			continue
		}
		for j := 0; j < frame.Stride; j++ {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f.Data[base+j]))
			off += 4
		}
		count++
	}

	binary.LittleEndian.PutUint64(buf[0:], f.Seq)
	binary.LittleEndian.PutUint32(buf[8:], count)

	return buf[:off]
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
