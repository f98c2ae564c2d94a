package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	gsessions "github.com/gorilla/sessions"

	"patabol/bot"
	"patabol/database"
	"patabol/session"
	"patabol/utils"
)

// Sender delivers messages over one chat channel. The telegram and
// whatsapp clients implement it.
type Sender interface {
	Send(recipient string, messages []string) error
}

// Dispatcher routes outbound messages by user id prefix: "tg:" to
// Telegram, "wa:" to WhatsApp. CLI users are in-process and have no
// outbound channel here.
type Dispatcher struct {
	Telegram Sender
	WhatsApp Sender
}

// Send delivers messages to one user over their channel. Long replies
// are split into channel-sized chunks first; both chat APIs reject
// oversized payloads.
func (d *Dispatcher) Send(userID string, messages []string) {
	channel, recipient := utils.SplitUserID(userID)
	var s Sender
	switch channel {
	case utils.ChannelTelegram:
		s = d.Telegram
	case utils.ChannelWhatsApp:
		s = d.WhatsApp
	}
	if s == nil {
		log.Printf("⚠️ no outbound channel for user=%s", userID)
		return
	}
	chunks := make([]string, 0, len(messages))
	for _, msg := range messages {
		chunks = append(chunks, bot.SplitMessage(msg)...)
	}
	if err := s.Send(recipient, chunks); err != nil {
		log.Printf("❌ sending to %s: %v", userID, err)
	}
}

// Broadcast sends one message to many users.
func (d *Dispatcher) Broadcast(userIDs []string, message string) {
	for _, id := range userIDs {
		d.Send(id, []string{message})
	}
}

type Server struct {
	router      *mux.Router
	repo        *database.Repository
	sessions    *session.Manager
	processor   *bot.Processor
	runner      *bot.Runner
	greeter     *bot.Greeter
	broadcaster *MatchBroadcaster
	dispatch    *Dispatcher
	cookies     *gsessions.CookieStore
}

func NewServer(
	repo *database.Repository,
	sessions *session.Manager,
	processor *bot.Processor,
	runner *bot.Runner,
	greeter *bot.Greeter,
	broadcaster *MatchBroadcaster,
	dispatch *Dispatcher,
	cookieSecret string,
) *Server {
	s := &Server{
		router:      mux.NewRouter().StrictSlash(true),
		repo:        repo,
		sessions:    sessions,
		processor:   processor,
		runner:      runner,
		greeter:     greeter,
		broadcaster: broadcaster,
		dispatch:    dispatch,
		cookies:     gsessions.NewCookieStore([]byte(cookieSecret)),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/matches", s.handleMatches).Methods("GET")
	s.router.HandleFunc("/matches/{uid}", s.handleMatch).Methods("GET")

	s.router.HandleFunc("/watch", s.handleWatchIndex).Methods("GET")
	s.router.HandleFunc("/watch/{code}", s.handleWatch).Methods("GET")
	s.router.HandleFunc("/ws/{code}", s.broadcaster.HandleWatchSocket).Methods("GET")

	s.router.HandleFunc("/webhooks/telegram", s.handleTelegramWebhook).Methods("POST")
	s.router.HandleFunc("/webhooks/whatsapp", s.handleWhatsAppWebhook).Methods("POST")
}

// Start runs the HTTP server with request logging and panic recovery.
func (s *Server) Start(port string) error {
	handler := handlers.RecoveryHandler()(
		handlers.LoggingHandler(os.Stdout, s.router))

	log.Printf("🌐 server listening on :%s", port)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchSummary struct {
	UID           string    `json:"uid"`
	SessionCode   string    `json:"session_code"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	HomeGoals     int       `json:"home_goals"`
	AwayGoals     int       `json:"away_goals"`
	ManOfTheMatch string    `json:"man_of_the_match"`
	PlayedAt      time.Time `json:"played_at"`
}

func summarize(rec database.MatchRecord) matchSummary {
	return matchSummary{
		UID:           rec.UID,
		SessionCode:   rec.SessionCode,
		HomeTeam:      rec.HomeTeam,
		AwayTeam:      rec.AwayTeam,
		HomeGoals:     rec.HomeGoals,
		AwayGoals:     rec.AwayGoals,
		ManOfTheMatch: rec.ManOfTheMatch,
		PlayedAt:      rec.PlayedAt,
	}
}

// handleMatches lists archived matches, newest first. ?today=1 narrows to
// the current day; ?limit caps the listing.
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	var (
		records []database.MatchRecord
		err     error
	)
	if r.URL.Query().Get("today") == "1" {
		today, tomorrow := utils.GetDayBounds(time.Now().UTC())
		records, err = s.repo.TodaysMatches(today, tomorrow)
	} else {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		records, err = s.repo.RecentMatches(limit)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "could not load matches")
		return
	}
	out := make([]matchSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleMatch returns one archived match with its full document.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	rec, err := s.repo.GetMatchByUID(uid)
	if err != nil {
		if database.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "match not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "could not load match")
		return
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(rec.Document), &doc); err != nil {
		s.writeError(w, http.StatusInternalServerError, "corrupt match document")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"match":    summarize(*rec),
		"document": doc,
	})
}

const viewerCookie = "patabol_viewer"

var watchTemplate = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>PATABOL - {{.Code}}</title></head>
<body>
<h1>⚽ PATABOL</h1>
<h2>Sesión {{.Code}}</h2>
<pre id="log"></pre>
<script>
const log = document.getElementById("log");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/{{.Code}}");
ws.onmessage = (msg) => {
	const data = JSON.parse(msg.data);
	if (data.type === "tick") {
		log.textContent += data.event.descripcion + "\n";
	} else if (data.type === "done") {
		log.textContent += "\n🏁 Final: " + data.result.equipo_local + " " + data.result.goles_local +
			" - " + data.result.goles_visitante + " " + data.result.equipo_visitante + "\n";
	}
};
</script>
</body>
</html>`))

// handleWatchIndex sends the viewer back to the session they last watched,
// when the cookie still points at a live one.
func (s *Server) handleWatchIndex(w http.ResponseWriter, r *http.Request) {
	store, _ := s.cookies.Get(r, viewerCookie)
	if code, ok := store.Values["last_code"].(string); ok && code != "" {
		if _, live := s.sessions.ViewByCode(code); live {
			http.Redirect(w, r, "/watch/"+code, http.StatusFound)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "no session to watch, open /watch/{code}")
}

// handleWatch serves the live viewer page and remembers the code.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, ok := s.sessions.ViewByCode(code); !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", code))
		return
	}
	store, _ := s.cookies.Get(r, viewerCookie)
	store.Values["last_code"] = code
	if err := store.Save(r, w); err != nil {
		log.Printf("❌ saving viewer cookie: %v", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := watchTemplate.Execute(w, map[string]string{"Code": code}); err != nil {
		log.Printf("❌ rendering watch page: %v", err)
	}
}

// handleIncoming runs one inbound chat message through the bot and starts
// the match runner when the command armed it.
func (s *Server) handleIncoming(userID, text string) []string {
	var replies []string
	if msg := s.greeter.Greet(userID); msg != "" {
		replies = append(replies, msg)
	}

	notify := func(otherID string, msgs []string) {
		s.dispatch.Send(otherID, msgs)
	}
	out, ready := s.processor.Handle(text, userID, notify)
	replies = append(replies, out...)

	if ready != nil {
		go s.runner.Run(ready, s.dispatch.Broadcast)
	}
	return replies
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
