package server

import (
	"encoding/json"
	"net/http"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"liaptui/bot"
	"liaptui/config"
	"liaptui/domain/actions"
	"liaptui/engine"
	"liaptui/server/connection"
	serverevents "liaptui/server/events"
	"liaptui/server/handlers"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checks
	},
}

// Server is the websocket front of the engine: it owns the room and
// connection registries and wires a broadcaster and a bot coordinator
// onto every room it creates.
type Server struct {
	cfg    config.Config
	log    slog.Logger
	rooms  *engine.Registry
	conn   *connection.Registry
	router *handlers.ActionRouter
}

// RoomResponse represents a room in API responses
type RoomResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Started bool     `json:"started"`
}

// CreateRoomRequest represents the request to create a new room
type CreateRoomRequest struct {
	Name       string `json:"name"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// NewServer creates the server over fresh registries. Subsystem
// loggers come off the shared backend.
func NewServer(cfg config.Config, backend *slog.Backend) *Server {
	log := backend.Logger("SRVR")
	rooms := engine.NewRegistry(cfg, backend.Logger("ENGN"))
	conn := connection.NewRegistry(cfg, backend.Logger("CONN"))
	botLog := backend.Logger("BOTS")
	bcast := serverevents.NewBroadcaster(backend.Logger("CONN"), conn)

	s := &Server{
		cfg:    cfg,
		log:    log,
		rooms:  rooms,
		conn:   conn,
		router: handlers.NewActionRouter(log, rooms, conn),
	}

	// The broadcaster must observe events before the bot coordinator so
	// humans never see a bot react to an event they have not received.
	rooms.OnRoomCreated(func(room *engine.Room) {
		bcast.Attach(room)
		bot.Attach(cfg, botLog, room, nil, 0)
	})

	// A seat that stays dark past the grace window leaves the game
	conn.OnGraceExpired = func(roomID string, seat int) {
		room, err := rooms.GetRoom(roomID)
		if err != nil {
			return
		}
		err = room.Queue.Enqueue(&engine.Action{
			ID:      uuid.NewString(),
			Seat:    seat,
			Payload: actions.Leave{},
		})
		if err != nil {
			log.Warnf("leave for dark seat %d in room %s not enqueued: %v", seat, roomID, err)
		}
	}

	return s
}

// Rooms exposes the room registry, mainly for shutdown
func (s *Server) Rooms() *engine.Registry {
	return s.rooms
}

// Start begins the server on the specified port
func (s *Server) Start(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/rooms", corsMiddleware(s.handleGetRooms))
	mux.HandleFunc("/api/rooms/create", corsMiddleware(s.handleCreateRoom))

	s.log.Infof("listening on port %s", port)
	return http.ListenAndServe("0.0.0.0:"+port, mux)
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	client := &connection.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Seat: -1,
	}
	s.conn.Add(client)
	s.log.Debugf("client %s connected from %s", client.ID, r.RemoteAddr)

	go s.readPump(client)
	go s.writePump(client)
}

// readPump reads messages from the WebSocket connection
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.conn.Remove(client)
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Errorf("client %s read error: %v", client.ID, err)
			}
			break
		}

		if err := s.router.HandleMessage(client, message); err != nil {
			s.log.Warnf("client %s message dropped: %v", client.ID, err)
		}
	}
}

// writePump sends messages to the WebSocket connection
func (s *Server) writePump(client *connection.Client) {
	defer func() {
		client.Conn.Close()
	}()

	for {
		message, ok := <-client.Send
		if !ok {
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			s.log.Debugf("client %s write error: %v", client.ID, err)
			return
		}
	}
}

// handleGetRooms returns a list of all open rooms
func (s *Server) handleGetRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rooms := s.rooms.Rooms()
	responses := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, s.roomResponse(room))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// handleCreateRoom creates a new room hosted by the requesting player
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var createReq CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if createReq.Name == "" || createReq.PlayerID == "" {
		http.Error(w, "Room name and player_id are required", http.StatusBadRequest)
		return
	}
	if createReq.PlayerName == "" {
		createReq.PlayerName = createReq.PlayerID
	}

	room, err := s.rooms.CreateRoom(createReq.Name, createReq.PlayerID, createReq.PlayerName, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(s.roomResponse(room))
}

func (s *Server) roomResponse(room *engine.Room) RoomResponse {
	seats := room.Domain.Seats()
	names := make([]string, 0, len(seats))
	for _, p := range seats {
		if p != nil {
			names = append(names, p.Name)
		}
	}

	return RoomResponse{
		ID:      room.Domain.ID,
		Name:    room.Domain.Name,
		Players: names,
		Started: room.Domain.Started(),
	}
}
