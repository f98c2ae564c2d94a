package sim

import "fmt"

// Role is a patabolista's preferred position. The value doubles as the
// Spanish display name shown in chat.
type Role string

const (
	RoleGoalkeeper Role = "Portero"
	RoleDefender   Role = "Defensa"
	RoleMidfielder Role = "Medio"
	RoleForward    Role = "Delantero"
)

// Stats accumulate during a single match and reset when a new match starts.
type Stats struct {
	Touches  int `json:"toques"`
	Passes   int `json:"pases"`
	Dribbles int `json:"regates_exitosos"`
	Steals   int `json:"robos"`
	Fouls    int `json:"faltas"`
	Goals    int `json:"goles"`
	Saves    int `json:"atajadas"`
}

// Player is a patabolista. Control, Speed, Strength and Dribble are the
// visible attributes; Magic stays hidden from players and skews success
// rolls in the engine.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	Role     Role   `json:"rol"`
	Control  int    `json:"control"`
	Speed    int    `json:"velocidad"`
	Strength int    `json:"fuerza"`
	Dribble  int    `json:"regate"`
	Magic    int    `json:"-"`

	Stats Stats `json:"estadisticas"`
}

// DisplayName is the name players see in chat: "Leo Rayo [P1]".
func (p *Player) DisplayName() string {
	return fmt.Sprintf("%s [%s]", p.Name, p.ID)
}

func (p *Player) ResetStats() {
	p.Stats = Stats{}
}

// clampAttr keeps generated attributes inside the 1..10 band.
func clampAttr(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
