package sim

import "fmt"

// Narrative builders. One line per tick, written for the chat broadcast.
// Player references use DisplayName so viewers can match lines to roster
// ids.

func narrateAdvance(p *Player) string {
	return fmt.Sprintf("%s avanza con la pelota", p.DisplayName())
}

func narrateTurnover(p *Player) string {
	return fmt.Sprintf("%s pierde la pelota", p.DisplayName())
}

func narratePass(from, to *Player) string {
	return fmt.Sprintf("%s pasa la pelota a %s", from.DisplayName(), to.DisplayName())
}

func narrateLostPass(p *Player) string {
	return fmt.Sprintf("%s falla el pase y pierde la pelota", p.DisplayName())
}

func narrateFoul(defender, victim *Player) string {
	return fmt.Sprintf("Falta de %s sobre %s", defender.DisplayName(), victim.DisplayName())
}

func narrateSteal(defender, victim *Player) string {
	return fmt.Sprintf("%s le roba la pelota a %s", defender.DisplayName(), victim.DisplayName())
}

func narrateDribble(p, defender *Player) string {
	return fmt.Sprintf("%s regatea a %s y sigue avanzando", p.DisplayName(), defender.DisplayName())
}

func narrateGoal(p *Player, epic bool) string {
	line := fmt.Sprintf("⚽ GOOOL de %s!", p.DisplayName())
	if epic {
		line += " ¡Jugada ÉPICA con toque mágico!"
	}
	return line
}

func narrateSave(keeper, shooter *Player) string {
	return fmt.Sprintf("🧤 %s ataja el disparo de %s", keeper.DisplayName(), shooter.DisplayName())
}
