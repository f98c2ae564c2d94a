package sim

import (
	"fmt"
	"math/rand"

	"patabol/utils"
)

// Engine constants. A match is 30 ticks of 10 simulated seconds each.
const (
	TotalTicks   = 30
	TickSeconds  = 10
	MatchSeconds = TotalTicks * TickSeconds

	MinRosterSize = 1
	MaxRosterSize = 5
)

// Side identifies a roster within a match.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Phase is the match lifecycle. Finished is terminal.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseFinished
)

// OutcomeType classifies what happened in a tick. Values are the Spanish
// event types the chat channels and export document use.
type OutcomeType string

const (
	OutcomeGoal     OutcomeType = "gol"
	OutcomeSave     OutcomeType = "atajada"
	OutcomeFoul     OutcomeType = "falta"
	OutcomeSteal    OutcomeType = "robo"
	OutcomeDribble  OutcomeType = "regate"
	OutcomePass     OutcomeType = "pase"
	OutcomeAdvance  OutcomeType = "avance"
	OutcomeTurnover OutcomeType = "perdida"
)

// roleActions is the capability table: which action categories each role may
// attempt. Only forwards carry the shot capability.
var roleActions = map[Role][]action{
	RoleGoalkeeper: {actAdvance, actPass, actChallenge},
	RoleDefender:   {actAdvance, actPass, actChallenge},
	RoleMidfielder: {actAdvance, actPass, actChallenge},
	RoleForward:    {actAdvance, actPass, actChallenge, actShoot},
}

type action int

const (
	actAdvance action = iota
	actPass
	actChallenge
	actShoot
)

// TickEvent is the structured record of one resolved tick.
type TickEvent struct {
	Tick      int         `json:"tick"`
	Minute    int         `json:"minuto"`
	Second    int         `json:"segundo"`
	Side      Side        `json:"lado"`
	Team      string      `json:"equipo"`
	PlayerID  string      `json:"jugador"`
	Outcome   OutcomeType `json:"tipo"`
	Epic      bool        `json:"epica,omitempty"`
	Narrative string      `json:"descripcion"`
}

// Goal is one scored goal in match order.
type Goal struct {
	Tick     int    `json:"tick"`
	Side     Side   `json:"equipo"`
	ScorerID string `json:"goleador"`
	Scorer   string `json:"goleador_nombre"`
}

// Roster is the 1-5 players a team fields for one match.
type Roster struct {
	Team    string
	Players []*Player
}

func (r Roster) goalkeeper() *Player {
	for _, p := range r.Players {
		if p.Role == RoleGoalkeeper {
			return p
		}
	}
	return r.Players[0]
}

// possessionWeight is the aggregate Control+Speed used for the per-tick
// possession draw. Never below 1 so a staffed roster always has a chance.
func (r Roster) possessionWeight() int {
	w := 0
	for _, p := range r.Players {
		w += p.Control + p.Speed
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Match drives one simulation. It owns its RNG exclusively; nothing else
// may consume entropy from it, so the full outcome is a function of the
// seed and the rosters alone.
type Match struct {
	home Roster
	away Roster
	seed int64
	rng  *rand.Rand

	phase     Phase
	tick      int
	homeGoals int
	awayGoals int

	// possession state: carrier is nil when the ball is loose and the
	// next tick re-draws the possessing side.
	homeHasBall bool
	carrier     *Player

	events []TickEvent
	goals  []Goal
}

// NewMatch validates both rosters and prepares a match. Player stats reset
// here, so the same rosters can be reused across matches.
func NewMatch(home, away Roster, seed int64) (*Match, error) {
	if err := validateRosters(home, away); err != nil {
		return nil, err
	}

	for _, p := range home.Players {
		p.ResetStats()
	}
	for _, p := range away.Players {
		p.ResetStats()
	}

	return &Match{
		home:  home,
		away:  away,
		seed:  seed,
		rng:   utils.NewSeededRNG(seed),
		phase: PhaseNotStarted,
	}, nil
}

func validateRosters(home, away Roster) error {
	seen := make(map[string]bool)
	for _, r := range []Roster{home, away} {
		if len(r.Players) < MinRosterSize || len(r.Players) > MaxRosterSize {
			return fmt.Errorf("%w: team %q has %d players, want %d-%d",
				ErrInvalidRoster, r.Team, len(r.Players), MinRosterSize, MaxRosterSize)
		}
		for _, p := range r.Players {
			if p == nil {
				return fmt.Errorf("%w: team %q contains a nil player", ErrInvalidRoster, r.Team)
			}
			if seen[p.ID] {
				return fmt.Errorf("%w: duplicate player id %s", ErrInvalidRoster, p.ID)
			}
			seen[p.ID] = true
		}
	}
	return nil
}

// Simulate runs a whole match to completion and aggregates the result.
func Simulate(home, away Roster, seed int64) (*MatchResult, error) {
	m, err := NewMatch(home, away, seed)
	if err != nil {
		return nil, err
	}
	for m.Phase() != PhaseFinished {
		if _, err := m.AdvanceTick(); err != nil {
			return nil, err
		}
	}
	return m.Aggregate()
}

func (m *Match) Phase() Phase     { return m.phase }
func (m *Match) Tick() int        { return m.tick }
func (m *Match) Seed() int64      { return m.seed }
func (m *Match) HomeTeam() string { return m.home.Team }
func (m *Match) AwayTeam() string { return m.away.Team }

// Score returns the running (home, away) goal count.
func (m *Match) Score() (int, int) { return m.homeGoals, m.awayGoals }

// Events returns the tick log resolved so far, in order.
func (m *Match) Events() []TickEvent {
	out := make([]TickEvent, len(m.events))
	copy(out, m.events)
	return out
}

// AdvanceTick resolves exactly one tick and returns its event. After the
// 30th tick the match is Finished and further calls fail with
// ErrInvalidState.
func (m *Match) AdvanceTick() (TickEvent, error) {
	if m.phase == PhaseFinished {
		return TickEvent{}, fmt.Errorf("%w: match already finished after %d ticks", ErrInvalidState, TotalTicks)
	}
	m.phase = PhaseInProgress

	ev := m.resolveTick(m.tick)
	m.events = append(m.events, ev)

	m.tick++
	if m.tick >= TotalTicks {
		m.phase = PhaseFinished
	}
	return ev, nil
}

func (m *Match) possessing() Roster {
	if m.homeHasBall {
		return m.home
	}
	return m.away
}

func (m *Match) opposing() Roster {
	if m.homeHasBall {
		return m.away
	}
	return m.home
}

func (m *Match) side() Side {
	if m.homeHasBall {
		return SideHome
	}
	return SideAway
}

// drawPossession picks the side for a loose ball, weighted by each team's
// aggregate Control+Speed.
func (m *Match) drawPossession() {
	hw := m.home.possessionWeight()
	aw := m.away.possessionWeight()
	m.homeHasBall = m.rng.Intn(hw+aw) < hw
}

func pick(rng *rand.Rand, players []*Player) *Player {
	return players[rng.Intn(len(players))]
}

// selectAction picks the tick's action category for the carrier, honoring
// the role capability table.
func (m *Match) selectAction(p *Player) action {
	allowed := roleActions[p.Role]
	if has(allowed, actShoot) && m.rng.Float64() < 0.3 {
		return actShoot
	}
	if m.rng.Float64() < 0.4 {
		return actChallenge
	}
	if m.rng.Intn(2) == 0 {
		return actAdvance
	}
	return actPass
}

func has(actions []action, a action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

// resolveTick runs the per-tick algorithm: possession, actor selection,
// foul check before the primary roll, success resolution, stat updates and
// one structured event.
func (m *Match) resolveTick(tick int) TickEvent {
	second := tick * TickSeconds
	minute := second / 60

	if m.carrier == nil {
		m.drawPossession()
		m.carrier = pick(m.rng, m.possessing().Players)
	}

	carrier := m.carrier
	ev := TickEvent{
		Tick:     tick,
		Minute:   minute,
		Second:   second % 60,
		Side:     m.side(),
		Team:     m.possessing().Team,
		PlayerID: carrier.ID,
	}

	switch m.selectAction(carrier) {
	case actAdvance:
		m.resolveAdvance(carrier, &ev)
	case actPass:
		m.resolvePass(carrier, &ev)
	case actChallenge:
		m.resolveChallenge(carrier, &ev)
	case actShoot:
		m.resolveShot(carrier, &ev)
	}
	return ev
}

func (m *Match) resolveAdvance(p *Player, ev *TickEvent) {
	p.Stats.Touches++
	prob := successProbability(p.Control, 0.6)
	prob = applyMagic(p.Magic, prob)

	if m.rng.Float64() < prob {
		ev.Outcome = OutcomeAdvance
		ev.Narrative = narrateAdvance(p)
		return
	}
	m.loseBall()
	ev.Outcome = OutcomeTurnover
	ev.Narrative = narrateTurnover(p)
}

func (m *Match) resolvePass(p *Player, ev *TickEvent) {
	p.Stats.Touches++
	p.Stats.Passes++
	prob := successProbability(p.Control, 0.7)
	prob = applyMagic(p.Magic, prob)

	if m.rng.Float64() < prob {
		mate := pick(m.rng, m.possessing().Players)
		mate.Stats.Touches++
		m.carrier = mate
		ev.Outcome = OutcomePass
		ev.Narrative = narratePass(p, mate)
		return
	}
	m.loseBall()
	ev.Outcome = OutcomeTurnover
	ev.Narrative = narrateLostPass(p)
}

// resolveChallenge is the duel against a random opponent. The defender's
// Strength drives a foul roll that happens before the primary dribble
// roll; a foul terminates the tick.
func (m *Match) resolveChallenge(p *Player, ev *TickEvent) {
	defender := pick(m.rng, m.opposing().Players)
	p.Stats.Touches++
	defender.Stats.Touches++

	foulProb := 0.1 + float64(defender.Strength-5)*0.05
	if m.rng.Float64() < foulProb {
		defender.Stats.Fouls++
		ev.Outcome = OutcomeFoul
		ev.Narrative = narrateFoul(defender, p)
		return
	}

	attack := successProbability(p.Dribble, 0.5)
	defense := successProbability(defender.Strength, 0.5)
	prob := attack - (defense-0.5)*0.3
	prob = applyMagic(p.Magic, prob)

	if m.rng.Float64() < prob {
		p.Stats.Dribbles++
		ev.Outcome = OutcomeDribble
		ev.Narrative = narrateDribble(p, defender)
		return
	}

	defender.Stats.Steals++
	m.homeHasBall = !m.homeHasBall
	m.carrier = defender
	ev.Outcome = OutcomeSteal
	ev.Narrative = narrateSteal(defender, p)
}

func (m *Match) resolveShot(p *Player, ev *TickEvent) {
	keeper := m.opposing().goalkeeper()
	p.Stats.Touches++

	shot := successProbability(p.Control, 0.3) + successProbability(p.Dribble, 0.2)
	save := successProbability(keeper.Control, 0.4)
	prob := shot - (save-0.4)*0.4
	prob = applyMagic(p.Magic, prob)

	if m.rng.Float64() < prob {
		p.Stats.Goals++
		if m.homeHasBall {
			m.homeGoals++
		} else {
			m.awayGoals++
		}
		epic := m.rng.Float64() < float64(p.Magic)/10.0 || p.Magic >= 7
		m.goals = append(m.goals, Goal{
			Tick:     ev.Tick,
			Side:     m.side(),
			ScorerID: p.ID,
			Scorer:   p.Name,
		})
		m.carrier = nil
		ev.Outcome = OutcomeGoal
		ev.Epic = epic
		ev.Narrative = narrateGoal(p, epic)
		return
	}

	keeper.Stats.Saves++
	m.carrier = nil
	ev.Outcome = OutcomeSave
	ev.Narrative = narrateSave(keeper, p)
}

// loseBall drops the carrier; the next tick re-draws possession.
func (m *Match) loseBall() {
	m.homeHasBall = !m.homeHasBall
	m.carrier = nil
}

// successProbability maps an attribute to a success chance around base:
// each point above 5 adds 10%, capped at 95%. Monotone non-decreasing.
func successProbability(attr int, base float64) float64 {
	p := base + float64(attr-5)*0.1
	if p > 0.95 {
		p = 0.95
	}
	return p
}

// applyMagic boosts a probability by the hidden stat. Legendary magic
// (9-10) gives the biggest lift, which is what makes epic plays land.
func applyMagic(magic int, prob float64) float64 {
	switch {
	case magic >= 9:
		prob = capAt(prob+0.3, 0.98)
	case magic >= 7:
		prob = capAt(prob+0.15, 0.95)
	case magic >= 4:
		prob = capAt(prob+0.05, 0.90)
	}
	if prob < 0 {
		prob = 0
	}
	return prob
}

func capAt(p, limit float64) float64 {
	if p > limit {
		return limit
	}
	return p
}
