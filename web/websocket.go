package web

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"patabol/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MatchBroadcaster mirrors live match ticks to websocket viewers, keyed by
// session code. It implements bot.TickSink.
type MatchBroadcaster struct {
	clientsMux sync.RWMutex
	clients    map[string]map[*websocket.Conn]bool
}

func NewMatchBroadcaster() *MatchBroadcaster {
	return &MatchBroadcaster{
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

type wsMessage struct {
	Type   string           `json:"type"`
	Event  *sim.TickEvent   `json:"event,omitempty"`
	Result *sim.MatchResult `json:"result,omitempty"`
}

// PublishTick fans one tick out to every viewer of the session.
func (b *MatchBroadcaster) PublishTick(code string, ev sim.TickEvent) {
	b.send(code, wsMessage{Type: "tick", Event: &ev})
}

// PublishDone tells viewers the match ended and delivers the final result.
func (b *MatchBroadcaster) PublishDone(code string, res *sim.MatchResult) {
	b.send(code, wsMessage{Type: "done", Result: res})
}

func (b *MatchBroadcaster) send(code string, msg wsMessage) {
	b.clientsMux.RLock()
	conns := make([]*websocket.Conn, 0, len(b.clients[code]))
	for conn := range b.clients[code] {
		conns = append(conns, conn)
	}
	b.clientsMux.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			b.removeClient(code, conn)
		}
	}
}

// ViewerCount reports how many sockets watch a session.
func (b *MatchBroadcaster) ViewerCount(code string) int {
	b.clientsMux.RLock()
	defer b.clientsMux.RUnlock()
	return len(b.clients[code])
}

func (b *MatchBroadcaster) addClient(code string, conn *websocket.Conn) {
	b.clientsMux.Lock()
	defer b.clientsMux.Unlock()
	if b.clients[code] == nil {
		b.clients[code] = make(map[*websocket.Conn]bool)
	}
	b.clients[code][conn] = true
	log.Printf("📺 viewer joined session=%s viewers=%d", code, len(b.clients[code]))
}

func (b *MatchBroadcaster) removeClient(code string, conn *websocket.Conn) {
	b.clientsMux.Lock()
	defer b.clientsMux.Unlock()
	if b.clients[code] != nil {
		delete(b.clients[code], conn)
		if len(b.clients[code]) == 0 {
			delete(b.clients, code)
		}
	}
	conn.Close()
}

// HandleWatchSocket upgrades a viewer connection for one session code and
// holds it open until the peer goes away.
func (b *MatchBroadcaster) HandleWatchSocket(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ websocket upgrade: %v", err)
		return
	}
	b.addClient(code, conn)

	// reads only serve to detect the close
	go func() {
		defer b.removeClient(code, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
