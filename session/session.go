package session

import (
	"time"

	"patabol/sim"
)

const (
	// MaxTeamSize is the most patabolistas a member can field.
	MaxTeamSize = 5
	// MaxMembers is two: the game is strictly head to head.
	MaxMembers = 2
	// BotUserID is the synthetic member id for matches against the house bot.
	BotUserID = "PATABOL_BOT"
	// BotNickname is how the bot introduces itself in broadcasts.
	BotNickname = "IA"

	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// defaultTeamNames backs the random team name assigned when a member joins
// without naming their own.
var defaultTeamNames = []string{
	"Los Rayos", "Fieras FC", "Tormenta", "Acero", "Relámpagos",
	"Águilas", "Leones", "Tigres", "Viento Norte", "Fuego Sagrado",
	"Hielo", "Sombra", "Bravo", "Noble", "Lince",
}

// State is the session lifecycle, driven by membership and team readiness.
type State string

const (
	StateWaitingPlayers State = "esperando_jugadores"
	StateSelectingTeams State = "seleccionando_equipos"
	StateBothReady      State = "ambos_listos"
	StateMatchPlayed    State = "partido_simulado"
)

// TeamState tracks whether a member has locked their picks in.
type TeamState string

const (
	TeamPending   TeamState = "pendiente_confirmacion"
	TeamConfirmed TeamState = "confirmado"
)

// Member is one participant in a session, human or bot.
type Member struct {
	UserID    string
	Nickname  string
	TeamName  string
	Team      []*sim.Player
	TeamState TeamState
}

func (m *Member) HasTeam() bool   { return len(m.Team) >= 1 }
func (m *Member) Confirmed() bool { return m.TeamState == TeamConfirmed }

// Session is one game lobby: a shared player pool, up to two members, and
// the latest match result. All access goes through the Manager, which
// holds the lock; code outside this package reads Views instead.
type Session struct {
	Code      string
	Pool      []*sim.Player
	CreatorID string
	State     State

	members   map[string]*Member
	joinOrder []string

	CreatedAt  time.Time
	LastActive time.Time

	LastResult   *sim.MatchResult
	lastHomeTeam []*sim.Player
	lastAwayTeam []*sim.Player
	lastHomeName string
	lastAwayName string
}

// Members returns members in join order. Home side is always the first
// joiner, so match sides are stable.
func (s *Session) Members() []*Member {
	out := make([]*Member, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		if m, ok := s.members[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// HumanIDs returns the user ids of every non-bot member, in join order.
func (s *Session) HumanIDs() []string {
	out := make([]string, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		if id != BotUserID {
			if _, ok := s.members[id]; ok {
				out = append(out, id)
			}
		}
	}
	return out
}

// AvailablePoolFor is the pool minus the OTHER members' picks. A member's
// own picks stay visible so they can re-select freely.
func (s *Session) AvailablePoolFor(userID string) []*sim.Player {
	taken := make(map[*sim.Player]bool)
	for id, m := range s.members {
		if id == userID {
			continue
		}
		for _, p := range m.Team {
			taken[p] = true
		}
	}
	return poolMinus(s.Pool, taken)
}

// AllConfirmed reports whether both members have locked their teams.
func (s *Session) AllConfirmed() bool {
	if len(s.members) != MaxMembers {
		return false
	}
	for _, m := range s.members {
		if !m.HasTeam() || !m.Confirmed() {
			return false
		}
	}
	return true
}

// refreshState recomputes the lifecycle from membership and picks. A played
// session drops back to readiness states here, which is what allows a rematch.
func (s *Session) refreshState() {
	if len(s.members) < MaxMembers {
		s.State = StateWaitingPlayers
		return
	}
	for _, m := range s.members {
		if !m.HasTeam() {
			s.State = StateSelectingTeams
			return
		}
	}
	s.State = StateBothReady
}
