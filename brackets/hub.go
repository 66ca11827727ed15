package brackets

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventBracketUpdated      = "BRACKET_UPDATED"
	EventSwissRoundGenerated = "SWISS_ROUND_GENERATED"
	EventSlotConflict        = "SLOT_CONFLICT"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
)

// AllRooms subscribes to the events of every tournament.
const AllRooms = "*"

type Event struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
	At      time.Time   `json:"at"`
}

// Subscriber receives the events of one room on Send. A full channel drops
// events instead of blocking the publisher.
type Subscriber struct {
	Hub      *Hub
	Send     chan Event
	Room     string
	IsClosed bool
	Mu       sync.Mutex
}

// Hub fans bracket events out to in-process subscribers, grouped in rooms
// keyed by tournament.
type Hub struct {
	rooms  map[string]map[*Subscriber]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscriber]bool),
		logger: logger,
	}
}

func RoomForTournament(tournamentID int) string {
	return "tournament:" + strconv.Itoa(tournamentID)
}

func (h *Hub) Subscribe(room string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &Subscriber{Hub: h, Send: make(chan Event, buffer), Room: room}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Subscriber]bool)
	}
	h.rooms[room][sub] = true
	h.logger.Debug("subscriber registered", slog.String("room", room), slog.Int("room_size", len(h.rooms[room])))
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[sub.Room]
	if !ok || !clients[sub] {
		return
	}
	sub.Mu.Lock()
	if !sub.IsClosed {
		close(sub.Send)
		sub.IsClosed = true
	}
	sub.Mu.Unlock()
	delete(clients, sub)
	if len(clients) == 0 {
		delete(h.rooms, sub.Room)
	}
}

// BroadcastToRoom delivers an event to the room and to AllRooms subscribers.
func (h *Hub) BroadcastToRoom(roomID, eventType string, payload interface{}) {
	ev := Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Payload: payload,
		RoomID:  roomID,
		At:      time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, room := range []string{roomID, AllRooms} {
		for sub := range h.rooms[room] {
			sub.Mu.Lock()
			if sub.IsClosed {
				sub.Mu.Unlock()
				continue
			}
			select {
			case sub.Send <- ev:
			default:
				h.logger.Warn("subscriber channel full, event dropped",
					slog.String("room", room), slog.String("event_type", eventType))
			}
			sub.Mu.Unlock()
		}
	}
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for sub := range clients {
			sub.Mu.Lock()
			if !sub.IsClosed {
				close(sub.Send)
				sub.IsClosed = true
			}
			sub.Mu.Unlock()
		}
		delete(h.rooms, room)
	}
}
