package sim

import "fmt"

// MatchResult is the aggregated, export-ready outcome of a finished match.
type MatchResult struct {
	HomeTeam      string           `json:"equipo_local"`
	AwayTeam      string           `json:"equipo_visitante"`
	HomeGoals     int              `json:"goles_local"`
	AwayGoals     int              `json:"goles_visitante"`
	Goals         []Goal           `json:"goles"`
	Stats         map[string]Stats `json:"estadisticas"`
	Narrative     []string         `json:"relato"`
	Events        []TickEvent      `json:"eventos"`
	ManOfTheMatch string           `json:"figura"`
}

// Aggregate builds the MatchResult. Calling it before the match finishes
// is a state error: partial aggregates would disagree with the tick log.
func (m *Match) Aggregate() (*MatchResult, error) {
	if m.phase != PhaseFinished {
		return nil, fmt.Errorf("%w: aggregate requires a finished match, at tick %d", ErrInvalidState, m.tick)
	}

	res := &MatchResult{
		HomeTeam:  m.home.Team,
		AwayTeam:  m.away.Team,
		HomeGoals: m.homeGoals,
		AwayGoals: m.awayGoals,
		Goals:     append([]Goal(nil), m.goals...),
		Stats:     make(map[string]Stats),
		Events:    m.Events(),
	}

	res.Narrative = make([]string, 0, len(res.Events))
	for _, ev := range res.Events {
		res.Narrative = append(res.Narrative, ev.Narrative)
	}

	all := append(append([]*Player(nil), m.home.Players...), m.away.Players...)
	for _, p := range all {
		res.Stats[p.ID] = p.Stats
	}
	res.ManOfTheMatch = manOfTheMatch(all)

	return res, nil
}

// manOfTheMatch scores every player and keeps the first best in roster
// order, home before away, so ties break deterministically.
func manOfTheMatch(players []*Player) string {
	best := ""
	bestScore := -1
	for _, p := range players {
		s := p.Stats.Goals*3 + p.Stats.Dribbles*2 + p.Stats.Steals + p.Stats.Passes
		if s > bestScore {
			bestScore = s
			best = p.ID
		}
	}
	return best
}

// Document flattens the result into the export shape used by the archive
// and the web API.
func (r *MatchResult) Document() map[string]any {
	goals := make([]map[string]any, 0, len(r.Goals))
	for _, g := range r.Goals {
		team := r.HomeTeam
		if g.Side == SideAway {
			team = r.AwayTeam
		}
		goals = append(goals, map[string]any{
			"tick":      g.Tick,
			"team":      team,
			"scorer_id": g.ScorerID,
		})
	}

	return map[string]any{
		"score": map[string]int{
			"home": r.HomeGoals,
			"away": r.AwayGoals,
		},
		"goals":            goals,
		"stats":            r.Stats,
		"narrative":        r.Narrative,
		"man_of_the_match": r.ManOfTheMatch,
	}
}
