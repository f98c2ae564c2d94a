package bot

import (
	"log"
	"time"

	"patabol/session"
	"patabol/sim"
)

// DefaultEventLatency paces the play-by-play so chat channels read like a
// live broadcast instead of a wall of text.
const DefaultEventLatency = 2 * time.Second

// BroadcastFunc sends one message to a set of users.
type BroadcastFunc func(userIDs []string, message string)

// TickSink receives every resolved tick as it is broadcast. The websocket
// layer plugs in here to mirror the match to web viewers.
type TickSink interface {
	PublishTick(code string, ev sim.TickEvent)
	PublishDone(code string, res *sim.MatchResult)
}

// Archiver persists finished matches. The sqlite repository implements it.
type Archiver interface {
	ArchiveMatch(code string, res *sim.MatchResult) error
}

// Runner plays out a confirmed session: simulates, narrates with latency,
// archives, and tears the session down.
type Runner struct {
	Sessions *session.Manager
	Archive  Archiver
	Ticks    TickSink

	// Latency between narrated events. Zero disables pacing (tests).
	Latency time.Duration
	// Seed produces the match seed; clock-based in production.
	Seed func() int64

	sleep func(time.Duration)
}

// NewRunner wires a runner with production pacing.
func NewRunner(sessions *session.Manager, archive Archiver, ticks TickSink, seed func() int64) *Runner {
	return &Runner{
		Sessions: sessions,
		Archive:  archive,
		Ticks:    ticks,
		Latency:  DefaultEventLatency,
		Seed:     seed,
		sleep:    time.Sleep,
	}
}

// Run plays the match from a confirmed session view and narrates it to
// every human member. The view is the roster snapshot taken when both
// teams locked in, so concurrent commands cannot disturb the rosters.
// It blocks for the full paced broadcast, so callers run it on its own
// goroutine.
func (r *Runner) Run(v *session.View, broadcast BroadcastFunc) {
	members := v.Members
	if len(members) != session.MaxMembers {
		log.Printf("⚠️ match requested for session=%s with %d members", v.Code, len(members))
		return
	}
	homeMember, awayMember := members[0], members[1]
	humans := v.HumanIDs()

	home := sim.Roster{Team: homeMember.TeamName, Players: homeMember.Team}
	away := sim.Roster{Team: awayMember.TeamName, Players: awayMember.Team}

	res, err := sim.Simulate(home, away, r.Seed())
	if err != nil {
		log.Printf("❌ simulation failed session=%s: %v", v.Code, err)
		broadcast(humans, "❌ No se pudo simular el partido: "+err.Error())
		return
	}

	r.Sessions.RecordResult(v.Code, res, homeMember.Team, awayMember.Team)
	if r.Archive != nil {
		if err := r.Archive.ArchiveMatch(v.Code, res); err != nil {
			log.Printf("❌ archiving match session=%s: %v", v.Code, err)
		}
	}

	broadcast(humans, "🎮 ¡Iniciando partido!")
	for _, ev := range res.Events {
		broadcast(humans, FormatEvent(ev))
		if r.Ticks != nil {
			r.Ticks.PublishTick(v.Code, ev)
		}
		if r.Latency > 0 {
			r.sleep(r.Latency)
		}
	}
	if r.Ticks != nil {
		r.Ticks.PublishDone(v.Code, res)
	}

	players := make(map[string]*sim.Player)
	for _, p := range append(append([]*sim.Player(nil), homeMember.Team...), awayMember.Team...) {
		players[p.ID] = p
	}
	broadcast(humans, FormatResult(res, players))
	broadcast(humans, FormatTeamStats(homeMember.Team, awayMember.Team, homeMember.TeamName, awayMember.TeamName, res.Stats))
	broadcast(humans, "Sesión finalizada. Creá una nueva con /sesion para jugar otra vez.")

	for _, id := range humans {
		r.Sessions.Leave(id)
	}
	log.Printf("🏁 match finished session=%s %s %d - %d %s",
		v.Code, res.HomeTeam, res.HomeGoals, res.AwayGoals, res.AwayTeam)
}
