package session

import "patabol/sim"

// MemberView is a copy of one member taken under the manager's lock.
// Team is a copied slice; the players it points at are shared pool
// entries whose attributes never change after generation.
type MemberView struct {
	UserID    string
	Nickname  string
	TeamName  string
	Team      []*sim.Player
	TeamState TeamState
}

func (m *MemberView) HasTeam() bool   { return len(m.Team) >= 1 }
func (m *MemberView) Confirmed() bool { return m.TeamState == TeamConfirmed }

// View is a point-in-time snapshot of one session. Chat handlers and
// the match runner read views; the live Session is only touched while
// the manager holds its lock, so concurrent commands never race on the
// member map.
type View struct {
	Code      string
	Pool      []*sim.Player
	CreatorID string
	State     State

	// Members is in join order. The first entry is the home side.
	Members []MemberView

	LastResult *sim.MatchResult

	lastHomeTeam []*sim.Player
	lastAwayTeam []*sim.Player
	lastHomeName string
	lastAwayName string
}

// view snapshots the session. Caller holds the manager's lock.
func (s *Session) view() *View {
	v := &View{
		Code:         s.Code,
		Pool:         s.Pool,
		CreatorID:    s.CreatorID,
		State:        s.State,
		LastResult:   s.LastResult,
		lastHomeTeam: s.lastHomeTeam,
		lastAwayTeam: s.lastAwayTeam,
		lastHomeName: s.lastHomeName,
		lastAwayName: s.lastAwayName,
	}
	for _, m := range s.Members() {
		v.Members = append(v.Members, MemberView{
			UserID:    m.UserID,
			Nickname:  m.Nickname,
			TeamName:  m.TeamName,
			Team:      append([]*sim.Player(nil), m.Team...),
			TeamState: m.TeamState,
		})
	}
	return v
}

// Member returns the snapshot member for a user id, or nil.
func (v *View) Member(userID string) *MemberView {
	for i := range v.Members {
		if v.Members[i].UserID == userID {
			return &v.Members[i]
		}
	}
	return nil
}

// HumanIDs returns the user ids of every non-bot member, in join order.
func (v *View) HumanIDs() []string {
	out := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		if m.UserID != BotUserID {
			out = append(out, m.UserID)
		}
	}
	return out
}

// UndraftedPool is the pool minus everyone's picks.
func (v *View) UndraftedPool() []*sim.Player {
	taken := make(map[*sim.Player]bool)
	for _, m := range v.Members {
		for _, p := range m.Team {
			taken[p] = true
		}
	}
	return poolMinus(v.Pool, taken)
}

// AvailablePoolFor is the pool minus the OTHER members' picks. A member's
// own picks stay visible so they can re-select freely.
func (v *View) AvailablePoolFor(userID string) []*sim.Player {
	taken := make(map[*sim.Player]bool)
	for _, m := range v.Members {
		if m.UserID == userID {
			continue
		}
		for _, p := range m.Team {
			taken[p] = true
		}
	}
	return poolMinus(v.Pool, taken)
}

// FindPlayer looks a pool player up by normalized id.
func (v *View) FindPlayer(id string) *sim.Player {
	for _, p := range v.Pool {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ReadyToSimulate reports whether both members have at least one pick.
func (v *View) ReadyToSimulate() bool {
	if len(v.Members) != MaxMembers {
		return false
	}
	for i := range v.Members {
		if !v.Members[i].HasTeam() {
			return false
		}
	}
	return true
}

// LastMatchTeams returns the rosters and team names of the last played
// match, for the post-game stats command.
func (v *View) LastMatchTeams() (home, away []*sim.Player, homeName, awayName string) {
	return v.lastHomeTeam, v.lastAwayTeam, v.lastHomeName, v.lastAwayName
}

func poolMinus(pool []*sim.Player, taken map[*sim.Player]bool) []*sim.Player {
	out := make([]*sim.Player, 0, len(pool))
	for _, p := range pool {
		if !taken[p] {
			out = append(out, p)
		}
	}
	return out
}
