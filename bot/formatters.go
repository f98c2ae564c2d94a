package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"patabol/sim"
)

// MaxMessageLength is the safe payload ceiling across Telegram and Twilio.
const MaxMessageLength = 4000

const divider = "=============================="

// SplitMessage chops a long message into channel-sized chunks on line
// boundaries. A single line longer than the ceiling is hard-cut at a
// rune boundary so no chunk carries broken UTF-8.
func SplitMessage(msg string) []string {
	if len(msg) <= MaxMessageLength {
		return []string{msg}
	}
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, line := range strings.Split(msg, "\n") {
		for len(line)+1 > MaxMessageLength {
			cut := MaxMessageLength - 1
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			flush()
			out = append(out, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line)+1 > MaxMessageLength {
			flush()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()
	return out
}

// Stars renders a 1-10 attribute as a five-star scale.
func Stars(value int) string {
	n := (value + 1) / 2
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("⭐", n) + strings.Repeat("☆", 5-n)
}

// FormatPool lists available patabolistas. extra, when non-empty, is
// appended after the listing (filter hints, truncation notice).
func FormatPool(pool []*sim.Player, extra string) string {
	if len(pool) == 0 {
		return "No hay patabolistas disponibles en el pool (ya fueron elegidos)."
	}
	var b strings.Builder
	b.WriteString("📋 POOL DE PATABOLISTAS\n")
	b.WriteString(divider + "\n\n")
	for i, p := range pool {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.DisplayName())
		fmt.Fprintf(&b, "   🏷️ Rol: %s\n", p.Role)
	}
	if extra != "" {
		b.WriteString("\n" + extra)
	}
	return b.String()
}

// FormatPlayerDetail shows the four visible attributes with stars. Magic
// never appears here.
func FormatPlayerDetail(p *sim.Player) string {
	var b strings.Builder
	b.WriteString("👤 DETALLE DE PATABOLISTA\n")
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "🆔 ID: %s\n", p.ID)
	fmt.Fprintf(&b, "📛 Nombre: %s\n", p.DisplayName())
	fmt.Fprintf(&b, "🏷️ Rol: %s\n\n", p.Role)
	b.WriteString("📊 ATRIBUTOS:\n")
	fmt.Fprintf(&b, "🎯 Control:   %s (%d/10)\n", Stars(p.Control), p.Control)
	fmt.Fprintf(&b, "⚡ Velocidad: %s (%d/10)\n", Stars(p.Speed), p.Speed)
	fmt.Fprintf(&b, "💪 Fuerza:    %s (%d/10)\n", Stars(p.Strength), p.Strength)
	fmt.Fprintf(&b, "🌀 Regate:    %s (%d/10)\n", Stars(p.Dribble), p.Dribble)
	return b.String()
}

// FormatEvent prefixes one tick's narrative with the outcome emoji.
func FormatEvent(ev sim.TickEvent) string {
	switch ev.Outcome {
	case sim.OutcomeGoal:
		return "⚽ " + ev.Narrative
	case sim.OutcomeFoul:
		return "🟨 " + ev.Narrative
	case sim.OutcomeSteal:
		return "🏃 " + ev.Narrative
	case sim.OutcomeDribble:
		return "✨ " + ev.Narrative
	case sim.OutcomePass, sim.OutcomeAdvance:
		return "📍 " + ev.Narrative
	case sim.OutcomeSave:
		return "🧤 " + ev.Narrative
	default:
		return "• " + ev.Narrative
	}
}

// FormatResult is the final score card with winner and man of the match.
func FormatResult(res *sim.MatchResult, players map[string]*sim.Player) string {
	var b strings.Builder
	b.WriteString("🏆 RESULTADO FINAL\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "%s: %d\n", res.HomeTeam, res.HomeGoals)
	fmt.Fprintf(&b, "%s: %d\n\n", res.AwayTeam, res.AwayGoals)
	switch {
	case res.HomeGoals > res.AwayGoals:
		fmt.Fprintf(&b, "🎉 ¡Ganador: %s!\n\n", res.HomeTeam)
	case res.HomeGoals < res.AwayGoals:
		fmt.Fprintf(&b, "🎉 ¡Ganador: %s!\n\n", res.AwayTeam)
	default:
		b.WriteString("🤝 Empate. Buen partido.\n\n")
	}
	if star := players[res.ManOfTheMatch]; star != nil {
		fmt.Fprintf(&b, "⭐ Jugador del Partido: %s\n", star.DisplayName())
		s := res.Stats[star.ID]
		fmt.Fprintf(&b, "Goles: %d, Regates: %d, Robos: %d, Pases: %d\n",
			s.Goals, s.Dribbles, s.Steals, s.Passes)
	}
	return b.String()
}

// FormatTeamStats is the per-player line summary for both rosters.
func FormatTeamStats(home, away []*sim.Player, homeName, awayName string, stats map[string]sim.Stats) string {
	var b strings.Builder
	b.WriteString("📊 ESTADÍSTICAS RESUMIDAS\n")
	b.WriteString(divider + "\n\n")
	writeTeam := func(name string, team []*sim.Player) {
		fmt.Fprintf(&b, "👥 %s:\n", name)
		for _, p := range team {
			s := stats[p.ID]
			fmt.Fprintf(&b, "%s:\n", p.DisplayName())
			fmt.Fprintf(&b, "  G:%d P:%d Rg:%d Rb:%d F:%d\n",
				s.Goals, s.Passes, s.Dribbles, s.Steals, s.Fouls)
		}
	}
	writeTeam(homeName, home)
	b.WriteString("\n")
	writeTeam(awayName, away)
	return b.String()
}

// FormatTeam lists a member's current picks.
func FormatTeam(teamName string, team []*sim.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Tu equipo: %s\n", teamName)
	b.WriteString(divider + "\n\n")
	for i, p := range team {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, p.DisplayName(), p.Role)
	}
	return b.String()
}
