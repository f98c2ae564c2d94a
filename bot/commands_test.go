package bot

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patabol/session"
	"patabol/utils"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	mgr := session.NewManager(nil, utils.NewSeededRNG(5))
	return NewProcessor(mgr, utils.NewSeededRNG(6))
}

func handleOK(t *testing.T, pr *Processor, input, userID string) []string {
	t.Helper()
	replies, _ := pr.Handle(input, userID, nil)
	require.NotEmpty(t, replies)
	return replies
}

func TestNormalizePlayerID(t *testing.T) {
	assert.Equal(t, "P1", NormalizePlayerID("p001"))
	assert.Equal(t, "P15", NormalizePlayerID(" p15 "))
	assert.Equal(t, "P7", NormalizePlayerID("P7"))
	assert.Equal(t, "XYZ", NormalizePlayerID("xyz"))
}

func TestHandleWithoutSession(t *testing.T) {
	pr := newTestProcessor(t)
	replies := handleOK(t, pr, "/pool", "tg:1")
	assert.Contains(t, replies[0], "No estás conectado")
}

func TestCreateSessionFlow(t *testing.T) {
	pr := newTestProcessor(t)

	replies := handleOK(t, pr, "/sesion Leo Los Rayos", "tg:1")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Sesión creada")
	assert.Contains(t, replies[0], "Los Rayos")
	assert.Contains(t, replies[1], "Comandos disponibles")

	s, ok := pr.Sessions.ViewByUser("tg:1")
	require.True(t, ok)
	assert.Contains(t, replies[0], s.Code)
}

func TestJoinNotifiesCreator(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	s, _ := pr.Sessions.ViewByUser("tg:1")

	notified := make(map[string][]string)
	notify := func(userID string, msgs []string) {
		notified[userID] = append(notified[userID], msgs...)
	}

	replies, _ := pr.Handle("/u "+s.Code+" Ana", "wa:2", notify)
	assert.Contains(t, replies[0], "Te uniste a la sesión como 'Ana'")
	require.NotEmpty(t, notified["tg:1"])
	assert.Contains(t, notified["tg:1"][0], "Ana se unió a tu sesión")
}

func TestJoinUnknownSessionCode(t *testing.T) {
	pr := newTestProcessor(t)
	replies := handleOK(t, pr, "/u NOPE99 Ana", "wa:2")
	assert.Contains(t, replies[0], "No existe una sesión con el código NOPE99")
}

func TestAddBotViaJoinAlias(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")

	replies := handleOK(t, pr, "/u ia Maquinas", "tg:1")
	assert.Contains(t, replies[0], "IA unida a la sesión")
	assert.Contains(t, replies[0], "Maquinas")

	s, _ := pr.Sessions.ViewByUser("tg:1")
	require.NotNil(t, s.Member(session.BotUserID))
}

func TestPoolFilterAndDetail(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")

	replies := handleOK(t, pr, "/p port", "tg:1")
	assert.Contains(t, replies[0], "POOL DE PATABOLISTAS")
	assert.Contains(t, replies[0], "Portero")
	assert.NotContains(t, replies[0], "Delantero")

	replies = handleOK(t, pr, "/d p001", "tg:1")
	assert.Contains(t, replies[0], "DETALLE DE PATABOLISTA")
	assert.Contains(t, replies[0], "[P1]")

	replies = handleOK(t, pr, "/d P99", "tg:1")
	assert.Contains(t, replies[0], "no encontrado")
}

func TestSelectConfirmAndStartAgainstBot(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	handleOK(t, pr, "/u ia", "tg:1")

	replies := handleOK(t, pr, "/s P1 P3 P5", "tg:1")
	assert.Contains(t, replies[0], "Equipo")
	assert.Contains(t, replies[0], "seleccionado")
	assert.Contains(t, replies[0], "La IA elegirá el suyo cuando confirmes")

	replies, ready := pr.Handle("/c", "tg:1", nil)
	require.NotNil(t, ready, "confirming against the bot must arm the match")
	assert.Contains(t, replies[0], "confirmó el equipo")
	assert.Contains(t, strings.Join(replies, "\n"), "Iniciando partido")
}

func TestSelectRejectsDraftedPlayer(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	s, _ := pr.Sessions.ViewByUser("tg:1")
	handleOK(t, pr, "/u "+s.Code+" Ana", "wa:2")

	handleOK(t, pr, "/s P1 P2", "tg:1")
	replies := handleOK(t, pr, "/s P2 P3", "wa:2")
	assert.Contains(t, replies[0], "P2 no está disponible")
}

func TestRemovePick(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	handleOK(t, pr, "/s P1 P2", "tg:1")

	replies := handleOK(t, pr, "/q P2", "tg:1")
	assert.Contains(t, replies[0], "devuelto al pool")

	replies = handleOK(t, pr, "/q P9", "tg:1")
	assert.Contains(t, replies[0], "no está en tu equipo")
}

func TestTeamAndStatsBeforeMatch(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")

	replies := handleOK(t, pr, "/e", "tg:1")
	assert.Contains(t, replies[0], "No tienes jugadores seleccionados")

	handleOK(t, pr, "/s P1", "tg:1")
	replies = handleOK(t, pr, "/e", "tg:1")
	assert.Contains(t, replies[0], "Tu equipo")

	replies = handleOK(t, pr, "/est", "tg:1")
	assert.Contains(t, replies[0], "No hay partido jugado aún")
}

func TestLeaveSession(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")

	replies := handleOK(t, pr, "/salir", "tg:1")
	assert.Contains(t, replies[0], "Has salido")

	_, ok := pr.Sessions.ViewByUser("tg:1")
	assert.False(t, ok)
}

func TestConcurrentPoolWhileJoining(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	s, ok := pr.Sessions.ViewByUser("tg:1")
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			pr.Handle("/pool", "tg:1", nil)
			pr.Handle("/e", "tg:1", nil)
		}
	}()
	go func() {
		defer wg.Done()
		pr.Handle("/u "+s.Code+" Ana", "wa:2", nil)
		pr.Handle("/s P1 P2", "wa:2", nil)
	}()
	wg.Wait()

	after, ok := pr.Sessions.ViewByUser("wa:2")
	require.True(t, ok)
	assert.Len(t, after.Members, 2)
	assert.Len(t, after.Member("wa:2").Team, 2)
}

func TestUnknownCommandInSession(t *testing.T) {
	pr := newTestProcessor(t)
	handleOK(t, pr, "/sesion Leo", "tg:1")
	replies := handleOK(t, pr, "/zzz", "tg:1")
	assert.Contains(t, replies[0], "Comando no reconocido")
}
