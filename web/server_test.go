package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patabol/bot"
	"patabol/database"
	"patabol/session"
	"patabol/sim"
	"patabol/utils"
)

type fakeSender struct {
	sent map[string][]string
}

func (f *fakeSender) Send(recipient string, messages []string) error {
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[recipient] = append(f.sent[recipient], messages...)
	return nil
}

func newTestServer(t *testing.T) (*Server, *database.Repository, *fakeSender) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	require.NoError(t, repo.EnsureSchema())

	sessions := session.NewManager(nil, utils.NewSeededRNG(21))
	processor := bot.NewProcessor(sessions, utils.NewSeededRNG(22))
	broadcaster := NewMatchBroadcaster()
	runner := bot.NewRunner(sessions, repo, broadcaster, func() int64 { return 42 })
	runner.Latency = 0

	tg := &fakeSender{}
	dispatch := &Dispatcher{Telegram: tg}
	greeter := &bot.Greeter{Store: repo}

	srv := NewServer(repo, sessions, processor, runner, greeter, broadcaster, dispatch, "test-secret")
	return srv, repo, tg
}

func doRequest(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func archiveOneMatch(t *testing.T, repo *database.Repository) database.MatchRecord {
	t.Helper()
	pool, err := sim.NewGenerator(1).GeneratePool(sim.DefaultPoolSize)
	require.NoError(t, err)
	res, err := sim.Simulate(
		sim.Roster{Team: "Titanes", Players: pool[:5]},
		sim.Roster{Team: "Cometas", Players: pool[5:10]},
		42,
	)
	require.NoError(t, err)
	require.NoError(t, repo.ArchiveMatch("ABC123", res))

	recent, err := repo.RecentMatches(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	return recent[0]
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMatchesListAndDetail(t *testing.T) {
	srv, repo, _ := newTestServer(t)
	archived := archiveOneMatch(t, repo)

	rec := doRequest(t, srv, "GET", "/matches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []matchSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ABC123", list[0].SessionCode)
	assert.Equal(t, archived.UID, list[0].UID)

	rec = doRequest(t, srv, "GET", "/matches/"+archived.UID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Match    matchSummary   `json:"match"`
		Document map[string]any `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, archived.UID, detail.Match.UID)
	assert.Contains(t, detail.Document, "narrative")
	assert.Contains(t, detail.Document, "man_of_the_match")
}

func TestMatchNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, "GET", "/matches/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchUnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doRequest(t, srv, "GET", "/watch/ZZZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchKnownSessionSetsCookie(t *testing.T) {
	srv, _, _ := newTestServer(t)
	s, err := srv.sessions.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	rec := doRequest(t, srv, "GET", "/watch/"+s.Code, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), s.Code)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

func TestDispatcherSplitsLongMessages(t *testing.T) {
	tg := &fakeSender{}
	d := &Dispatcher{Telegram: tg}

	long := strings.Repeat("línea de relato\n", 600)
	d.Send("tg:9", []string{long})

	chunks := tg.sent["9"]
	require.Greater(t, len(chunks), 1, "a reply past the ceiling must go out in chunks")
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), bot.MaxMessageLength)
	}
	assert.Equal(t, long, strings.TrimSuffix(strings.Join(chunks, ""), "\n"), "no text lost in the split")
}

func TestTelegramWebhookRepliesViaSender(t *testing.T) {
	srv, _, tg := newTestServer(t)

	update := `{"update_id":1,"message":{"text":"/sesion Leo","chat":{"id":777}}}`
	rec := doRequest(t, srv, "POST", "/webhooks/telegram", update)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotEmpty(t, tg.sent["777"])
	all := strings.Join(tg.sent["777"], "\n")
	assert.Contains(t, all, "Bienvenido a PATABOL", "first contact gets the welcome")
	assert.Contains(t, all, "Sesión creada")
}

func TestTelegramWebhookIgnoresEmptyUpdates(t *testing.T) {
	srv, _, tg := newTestServer(t)
	rec := doRequest(t, srv, "POST", "/webhooks/telegram", `{"update_id":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, tg.sent)
}

func TestWhatsAppWebhookReturnsEmptyTwiML(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/webhooks/whatsapp",
		strings.NewReader("From=whatsapp%3A%2B5691111&Body=%2Fh"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response></Response>")
}
