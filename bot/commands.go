package bot

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"patabol/session"
	"patabol/sim"
)

// NotifyFunc delivers messages to another user, e.g. telling the creator
// someone joined their session.
type NotifyFunc func(userID string, messages []string)

// maxPoolUnfiltered caps the /pool listing before the stratified sample
// kicks in.
const maxPoolUnfiltered = 15

var aliases = map[string]string{
	"/u":   "/unirse",
	"/p":   "/pool",
	"/d":   "/detalle",
	"/s":   "/seleccionar",
	"/a":   "/seleccionar_auto",
	"/q":   "/quitar",
	"/e":   "/equipo",
	"/c":   "/confirmar",
	"/est": "/estadisticas",
	"/h":   "/ayuda",
}

var poolFilters = map[string]sim.Role{
	"port": sim.RoleGoalkeeper,
	"def":  sim.RoleDefender,
	"med":  sim.RoleMidfielder,
	"del":  sim.RoleForward,
}

const msgNotConnected = "❌ No estás conectado a ninguna sesión.\n\n" +
	"Para jugar:\n• Crea una sesión: _/sesion_ <nickname> [nombre_equipo]\n" +
	"• O únete a una existente: _/unirse_ *(/u)* <código> <nickname> [nombre_equipo]\n\n" +
	"Pide el código a quien organice si vas a unirte."

const msgHelp = `⚽ PATABOL - Comandos disponibles:

_/sesion_ <nickname> [nombre_equipo] - Crea una nueva sesión (te une y te da el código para compartir)
_/unirse_ *(/u)* <código> <nickname> [nombre_equipo] - Únete a una sesión existente. Creador: _/u_ *ia* [nombre_equipo] para jugar vs IA (nombre opcional)
_/pool_ *(/p)* [port|def|med|del] - Pool disponible. Filtros: port (porteros), def (defensas), med (medios), del (delanteros)
_/detalle_ *(/d)* <id> - Muestra detalle de un patabolista
_/seleccionar_ *(/s)* <id1> [id2] ... - Selecciona tu equipo (entre 1 y 5 jugadores)
_/seleccionar_auto_ *(/a)* - Elige tu equipo automáticamente (5 jugadores, con portero)
_/quitar_ *(/q)* <id> - Devuelve un jugador de tu equipo al pool para elegir otro
_/equipo_ *(/e)* - Muestra tu equipo actualmente seleccionado
_/confirmar_ *(/c)* - Confirma tu equipo (el partido inicia automáticamente cuando ambos confirman)
_/estadisticas_ *(/est)* - Muestra estadísticas del último partido
_/salir_ - Salir de la sesión actual
_/ayuda_ *(/h)* - Muestra esta ayuda
`

const msgUnknown = "❌ Comando no reconocido. Usa /ayuda o /h para ver comandos disponibles."

// NormalizePlayerID canonicalizes pool ids: case-insensitive and without
// leading zeros, so p001 and P1 name the same patabolista.
func NormalizePlayerID(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasPrefix(id, "P") && len(id) > 1 {
		if n, err := strconv.Atoi(id[1:]); err == nil {
			return "P" + strconv.Itoa(n)
		}
	}
	return id
}

// Processor turns raw chat commands into session mutations and replies.
// It is channel-agnostic; channels own delivery and markup rendering.
// Handlers read session snapshots, never live session state, so one
// Processor serves concurrent webhook requests.
type Processor struct {
	Sessions *session.Manager

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewProcessor builds a command processor. rng drives the stratified pool
// sample; pass a seeded one in tests.
func NewProcessor(sessions *session.Manager, rng *rand.Rand) *Processor {
	return &Processor{Sessions: sessions, rng: rng}
}

// Handle processes one command line. It returns the replies for the
// sender, and a non-nil session view when both teams just confirmed and
// the match should start.
func (pr *Processor) Handle(input, userID string, notify NotifyFunc) ([]string, *session.View) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return []string{msgUnknown}, nil
	}
	cmd := strings.ToLower(parts[0])
	if full, ok := aliases[cmd]; ok {
		cmd = full
	}

	s, inSession := pr.Sessions.ViewByUser(userID)
	if !inSession {
		switch cmd {
		case "/sesion":
			return pr.createSession(parts, userID), nil
		case "/unirse":
			return pr.joinSession(parts, userID, notify), nil
		default:
			return []string{msgNotConnected}, nil
		}
	}

	switch cmd {
	case "/ayuda", "/help":
		return []string{msgHelp}, nil
	case "/iniciar":
		return []string{"Usa /sesion <nickname> [nombre_equipo] para crear una nueva sesión, o /u <código> <nickname> para unirte a una existente."}, nil
	case "/sesion":
		return []string{"Actualmente estás en una sesión, debes salir con el comando /salir."}, nil
	case "/unirse":
		return pr.joinFromInside(parts, s, userID, notify), nil
	case "/salir":
		pr.Sessions.Leave(userID)
		return []string{"✅ Has salido de la sesión."}, nil
	case "/pool":
		return pr.showPool(parts, s), nil
	case "/detalle":
		return pr.showDetail(parts, s), nil
	case "/seleccionar":
		return pr.selectTeam(parts, s, userID), nil
	case "/seleccionar_auto":
		return pr.autoSelect(s, userID), nil
	case "/quitar":
		return pr.removePick(parts, userID), nil
	case "/equipo":
		return pr.showTeam(s, userID), nil
	case "/confirmar":
		return pr.confirm(s, userID, notify)
	case "/estadisticas":
		return pr.lastStats(s), nil
	default:
		return []string{msgUnknown}, nil
	}
}

func (pr *Processor) createSession(parts []string, userID string) []string {
	if len(parts) < 2 {
		return []string{"❌ Uso: /sesion <nickname> [nombre_equipo]\nEjemplo: /sesion Leo Los Rayos\n\n" + msgNotConnected}
	}
	nickname := parts[1]
	teamName := strings.Join(parts[2:], " ")
	s, err := pr.Sessions.Create(userID, nickname, teamName)
	if err != nil {
		return []string{"❌ No se pudo crear la sesión: " + err.Error()}
	}
	msg := fmt.Sprintf(
		"✅ Sesión creada. Te uniste como '%s' (equipo: %s).\n\n"+
			"📌 Código para compartir con otros jugadores: *%s*\n\n"+
			"• Para jugar contra la IA: _/u ia_ o _/u ia_ <nombre_equipo>\n"+
			"• Para que otro jugador se una: /u <código> <nickname>\n\n"+
			"Usa /p para ver patabolistas y /s para elegir tu equipo.",
		nickname, s.Member(userID).TeamName, s.Code)
	return []string{msg, msgHelp}
}

func (pr *Processor) joinSession(parts []string, userID string, notify NotifyFunc) []string {
	if len(parts) < 3 {
		return []string{"❌ Uso: /unirse <código> <nickname> [nombre_equipo]\nEjemplo: /unirse ABC123 Ana\n\n" + msgNotConnected}
	}
	code, nickname := parts[1], parts[2]
	teamName := strings.Join(parts[3:], " ")
	s, err := pr.Sessions.Join(code, userID, nickname, teamName)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			return []string{fmt.Sprintf("❌ No existe una sesión con el código %s.", strings.ToUpper(code))}
		case errors.Is(err, session.ErrSessionFull):
			return []string{"❌ La sesión ya tiene el máximo de jugadores."}
		case errors.Is(err, session.ErrAlreadyInSession):
			return []string{"❌ Ya estás en esta sesión."}
		default:
			return []string{"❌ " + err.Error()}
		}
	}
	me := s.Member(userID)
	if notify != nil && s.CreatorID != "" && s.CreatorID != userID {
		notify(s.CreatorID, []string{fmt.Sprintf("👤 %s se unió a tu sesión (equipo: %s).", me.Nickname, me.TeamName)})
	}
	return []string{
		fmt.Sprintf("Te uniste a la sesión como '%s' (equipo: %s).", me.Nickname, me.TeamName),
		msgHelp,
	}
}

// joinFromInside handles "/u ia" for creators, and rejects everything else
// while the user already sits in a session.
func (pr *Processor) joinFromInside(parts []string, s *session.View, userID string, notify NotifyFunc) []string {
	if len(parts) >= 2 && strings.EqualFold(parts[1], "ia") {
		teamName := strings.TrimSpace(strings.Join(parts[2:], " "))
		withBot, err := pr.Sessions.AddBot(s.Code, userID, teamName)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNotCreator):
				return []string{"❌ Solo el creador de la sesión puede agregar a la IA."}
			case errors.Is(err, session.ErrSessionFull):
				return []string{"❌ La sesión ya tiene el máximo de jugadores."}
			case errors.Is(err, session.ErrBotAlreadyJoined):
				return []string{"❌ La IA ya está en esta sesión."}
			default:
				return []string{"❌ " + err.Error()}
			}
		}
		bot := withBot.Member(session.BotUserID)
		if notify != nil {
			notify(withBot.CreatorID, []string{fmt.Sprintf("🤖 La IA se unió a tu sesión (equipo: %s).", bot.TeamName)})
		}
		return []string{fmt.Sprintf(
			"✅ IA unida a la sesión (equipo: %s). Elige tu equipo con /s o /a; la IA elegirá el suyo automáticamente.",
			bot.TeamName)}
	}
	return []string{"❌ Ya estás en una sesión. Usa /salir primero."}
}

func (pr *Processor) showPool(parts []string, s *session.View) []string {
	available := s.UndraftedPool()
	var filter sim.Role
	filtered := false
	if len(parts) > 1 {
		if role, ok := poolFilters[strings.ToLower(strings.TrimSpace(parts[1]))]; ok {
			filter, filtered = role, true
		}
	}
	if filtered {
		var matching []*sim.Player
		for _, p := range available {
			if p.Role == filter {
				matching = append(matching, p)
			}
		}
		if len(matching) == 0 {
			return []string{"❌ No hay patabolistas disponibles con ese filtro. Usa /p para ver todos."}
		}
		return []string{FormatPool(matching, "")}
	}

	extra := ""
	if len(available) > maxPoolUnfiltered {
		sample := pr.stratifiedSample(available, maxPoolUnfiltered)
		extra = fmt.Sprintf(
			"📌 Hay %d jugadores más.\nFiltros: /p port (porteros), /p def (defensas), /p med (medios), /p del (delanteros)",
			len(available)-len(sample))
		available = sample
	}
	return []string{FormatPool(available, extra)}
}

// stratifiedSample keeps the pool listing representative: every role gets
// slots proportional to its share, at least one each.
func (pr *Processor) stratifiedSample(pool []*sim.Player, n int) []*sim.Player {
	if len(pool) <= n {
		return pool
	}
	byRole := make(map[sim.Role][]*sim.Player)
	for _, p := range pool {
		byRole[p.Role] = append(byRole[p.Role], p)
	}
	total := len(pool)
	remaining := n
	var out []*sim.Player
	for _, role := range []sim.Role{sim.RoleGoalkeeper, sim.RoleDefender, sim.RoleMidfielder, sim.RoleForward} {
		group := byRole[role]
		if len(group) == 0 || remaining <= 0 {
			continue
		}
		take := int(float64(n)*float64(len(group))/float64(total) + 0.5)
		if take < 1 {
			take = 1
		}
		if take > remaining {
			take = remaining
		}
		if take > len(group) {
			take = len(group)
		}
		out = append(out, pr.sample(group, take)...)
		remaining -= take
	}
	if len(out) < n {
		chosen := make(map[*sim.Player]bool, len(out))
		for _, p := range out {
			chosen[p] = true
		}
		var rest []*sim.Player
		for _, p := range pool {
			if !chosen[p] {
				rest = append(rest, p)
			}
		}
		extra := n - len(out)
		if extra > len(rest) {
			extra = len(rest)
		}
		out = append(out, pr.sample(rest, extra)...)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (pr *Processor) sample(group []*sim.Player, n int) []*sim.Player {
	pr.rngMu.Lock()
	idx := pr.rng.Perm(len(group))[:n]
	pr.rngMu.Unlock()
	out := make([]*sim.Player, 0, n)
	for _, i := range idx {
		out = append(out, group[i])
	}
	return out
}

func (pr *Processor) showDetail(parts []string, s *session.View) []string {
	if len(parts) != 2 {
		return []string{"❌ Uso: /detalle <id> o /d <id>\nEjemplo: /d P1"}
	}
	id := NormalizePlayerID(parts[1])
	p := s.FindPlayer(id)
	if p == nil {
		return []string{fmt.Sprintf("❌ Patabolista %s no encontrado. Usa /pool para ver IDs.", id)}
	}
	return []string{FormatPlayerDetail(p)}
}

func (pr *Processor) selectTeam(parts []string, s *session.View, userID string) []string {
	ids := parts[1:]
	if len(ids) == 0 {
		return []string{"❌ Debes elegir al menos un patabolista.\nEjemplo: /s P1 P5 P8"}
	}
	if len(ids) > session.MaxTeamSize {
		return []string{fmt.Sprintf("❌ Máximo %d jugadores por equipo.\nEjemplo: /s P1 P5 P8", session.MaxTeamSize)}
	}
	available := make(map[string]*sim.Player)
	for _, p := range s.AvailablePoolFor(userID) {
		available[NormalizePlayerID(p.ID)] = p
	}
	picks := make([]*sim.Player, 0, len(ids))
	for _, raw := range ids {
		p, ok := available[NormalizePlayerID(raw)]
		if !ok {
			return []string{fmt.Sprintf("❌ %s no está disponible (no existe o ya fue elegido por el otro). Usa /pool.", raw)}
		}
		picks = append(picks, p)
	}
	if err := pr.Sessions.SelectTeam(userID, picks); err != nil {
		return []string{"❌ " + err.Error()}
	}
	if fresh, ok := pr.Sessions.ViewByUser(userID); ok {
		s = fresh
	}
	return []string{pr.selectionMessage(s, userID, picks, false)}
}

func (pr *Processor) autoSelect(s *session.View, userID string) []string {
	team, err := pr.Sessions.AutoSelectTeam(userID)
	if err != nil {
		if errors.Is(err, session.ErrTeamEmpty) {
			return []string{"❌ No se pudo armar el equipo automáticamente. Usa /pool y /seleccionar."}
		}
		return []string{"❌ " + err.Error()}
	}
	if fresh, ok := pr.Sessions.ViewByUser(userID); ok {
		s = fresh
	}
	return []string{pr.selectionMessage(s, userID, team, true)}
}

func (pr *Processor) selectionMessage(s *session.View, userID string, team []*sim.Player, auto bool) string {
	m := s.Member(userID)
	var b strings.Builder
	if auto {
		fmt.Fprintf(&b, "✅ Equipo (%s) seleccionado automáticamente:\n", m.TeamName)
	} else {
		fmt.Fprintf(&b, "✅ Equipo (%s) seleccionado:\n", m.TeamName)
	}
	for _, p := range team {
		fmt.Fprintf(&b, "  - %s (%s)\n", p.DisplayName(), p.Role)
	}
	switch {
	case s.ReadyToSimulate():
		b.WriteString("\nUsá _/confirmar_ o _/c_ para confirmar tu equipo. Solo equipos confirmados pueden jugar.")
	case s.Member(session.BotUserID) != nil:
		b.WriteString("\nUsá _/confirmar_ o _/c_ para confirmar tu equipo. La IA elegirá el suyo cuando confirmes.")
	default:
		b.WriteString("\nEsperando al otro jugador para que elija su equipo.")
	}
	return b.String()
}

func (pr *Processor) removePick(parts []string, userID string) []string {
	if len(parts) != 2 {
		return []string{"❌ Uso: /quitar <id> o /q <id>\nEjemplo: /q P3\nDevuelve ese jugador al pool para elegir otro."}
	}
	id := NormalizePlayerID(parts[1])
	p, err := pr.Sessions.RemoveFromTeam(userID, id)
	if err != nil {
		return []string{fmt.Sprintf("❌ %s no está en tu equipo. Usa /equipo para ver tus jugadores.", id)}
	}
	return []string{fmt.Sprintf("✅ %s devuelto al pool. Usa /pool para ver disponibles y /seleccionar para elegir otro.", p.DisplayName())}
}

func (pr *Processor) showTeam(s *session.View, userID string) []string {
	m := s.Member(userID)
	if m == nil || !m.HasTeam() {
		return []string{"❌ No tienes jugadores seleccionados aún. Usa /s o /a para elegir tu equipo."}
	}
	return []string{FormatTeam(m.TeamName, m.Team)}
}

func teamSummary(m *session.MemberView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s confirmó el equipo *%s*:\n", m.Nickname, m.TeamName)
	for i, p := range m.Team {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, p.DisplayName(), p.Role)
	}
	return b.String()
}

func (pr *Processor) confirm(s *session.View, userID string, notify NotifyFunc) ([]string, *session.View) {
	me := s.Member(userID)
	if me == nil || !me.HasTeam() {
		return []string{"❌ No tienes jugadores seleccionados. Usa /s o /a para elegir tu equipo."}, nil
	}
	if me.Confirmed() {
		return []string{"✅ Tu equipo ya está confirmado."}, nil
	}
	botHadTeam := false
	if bot := s.Member(session.BotUserID); bot != nil {
		botHadTeam = bot.HasTeam()
	}

	after, ready, err := pr.Sessions.Confirm(userID)
	if err != nil {
		return []string{"❌ " + err.Error()}, nil
	}

	replies := []string{teamSummary(me)}
	if notify != nil {
		for _, id := range after.HumanIDs() {
			if id != userID {
				notify(id, []string{teamSummary(me)})
			}
		}
	}
	if bot := after.Member(session.BotUserID); bot != nil && !botHadTeam && bot.Confirmed() {
		if notify != nil {
			for _, id := range after.HumanIDs() {
				notify(id, []string{teamSummary(bot)})
			}
		}
	}
	if ready {
		replies = append(replies, "🎮 Ambos equipos confirmados. ¡Iniciando partido!")
		return replies, after
	}
	return replies, nil
}

func (pr *Processor) lastStats(s *session.View) []string {
	if s.LastResult == nil {
		return []string{"❌ No hay partido jugado aún en esta sesión."}
	}
	home, away, homeName, awayName := s.LastMatchTeams()
	players := make(map[string]*sim.Player)
	for _, p := range append(append([]*sim.Player(nil), home...), away...) {
		players[p.ID] = p
	}
	return []string{
		FormatResult(s.LastResult, players),
		FormatTeamStats(home, away, homeName, awayName, s.LastResult.Stats),
	}
}
