package sim

import (
	"fmt"
	"math/rand"

	"patabol/utils"
)

const DefaultPoolSize = 15

var firstNames = []string{
	"Leo", "Bruno", "Carlos", "Diego", "Luis", "Miguel", "Javier",
	"Andrés", "Fernando", "Ricardo", "Sergio", "Alejandro", "Roberto",
	"Daniel", "Pablo", "Manuel", "Francisco", "Antonio", "José", "Juan",
}

var lastNames = []string{
	"Rayo", "Fierro", "Veloz", "Torre", "Acero", "Rápido", "Fuerte",
	"Ágil", "Noble", "Bravo", "Lince", "Tigre", "León", "Águila",
	"Trueno", "Relámpago", "Viento", "Fuego", "Hielo", "Sombra",
}

// Generator produces pools of patabolistas. It owns its RNG, so the same
// seed always yields a byte-identical pool.
type Generator struct {
	rng       *rand.Rand
	usedNames map[string]bool
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:       utils.NewSeededRNG(seed),
		usedNames: make(map[string]bool),
	}
}

// GeneratePool produces size players with unique ids P1..Pn, unique names,
// a role mix that always includes goalkeepers for two teams, role-skewed
// visible attributes and Magic drawn from its fixed skewed distribution.
func (g *Generator) GeneratePool(size int) ([]*Player, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	roles := rolesForSize(size)
	pool := make([]*Player, 0, size)
	for i, role := range roles {
		name := g.uniqueName()
		control, speed, strength, dribble := g.attributesFor(role)
		pool = append(pool, &Player{
			ID:       fmt.Sprintf("P%d", i+1),
			Name:     name,
			Role:     role,
			Control:  control,
			Speed:    speed,
			Strength: strength,
			Dribble:  dribble,
			Magic:    g.magic(),
		})
	}
	return pool, nil
}

func (g *Generator) uniqueName() string {
	for {
		name := fmt.Sprintf("%s %s",
			firstNames[g.rng.Intn(len(firstNames))],
			lastNames[g.rng.Intn(len(lastNames))])
		if !g.usedNames[name] {
			g.usedNames[name] = true
			return name
		}
	}
}

// magic samples the hidden stat: 60% lands in 1-3, 30% in 4-6, 9% in 7-8
// and 1% in the legendary 9-10 band.
func (g *Generator) magic() int {
	r := g.rng.Float64()
	switch {
	case r < 0.60:
		return 1 + g.rng.Intn(3)
	case r < 0.90:
		return 4 + g.rng.Intn(3)
	case r < 0.99:
		return 7 + g.rng.Intn(2)
	default:
		return 9 + g.rng.Intn(2)
	}
}

// randRange mirrors an inclusive [lo,hi] roll.
func (g *Generator) randRange(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) attributesFor(role Role) (control, speed, strength, dribble int) {
	base := g.randRange(1, 10)

	switch role {
	case RoleGoalkeeper:
		control = base + g.randRange(0, 3)
		speed = g.randRange(2, 6)
		strength = base + g.randRange(2, 4)
		dribble = g.randRange(1, 5)
	case RoleDefender:
		control = g.randRange(3, 7)
		speed = g.randRange(3, 7)
		strength = base + g.randRange(1, 3)
		dribble = g.randRange(2, 6)
	case RoleMidfielder:
		control = base + g.randRange(0, 2)
		speed = g.randRange(4, 8)
		strength = g.randRange(3, 7)
		dribble = base + g.randRange(0, 2)
	default: // RoleForward
		control = g.randRange(4, 8)
		speed = base + g.randRange(1, 3)
		strength = g.randRange(2, 6)
		dribble = base + g.randRange(2, 4)
	}

	return clampAttr(control), clampAttr(speed), clampAttr(strength), clampAttr(dribble)
}

// rolesForSize returns the role distribution. The standard pool of 15 is
// 2 goalkeepers, 4 defenders, 5 midfielders, 4 forwards; other sizes scale
// proportionally but always carry two goalkeepers when the pool allows,
// so both teams can field one.
func rolesForSize(size int) []Role {
	if size == DefaultPoolSize {
		return []Role{
			RoleGoalkeeper, RoleGoalkeeper,
			RoleDefender, RoleDefender, RoleDefender, RoleDefender,
			RoleMidfielder, RoleMidfielder, RoleMidfielder, RoleMidfielder, RoleMidfielder,
			RoleForward, RoleForward, RoleForward, RoleForward,
		}
	}

	keepers := size / 8
	if keepers < 2 {
		keepers = 2
	}
	if keepers > size {
		keepers = size
	}
	defenders := max(1, size/4)
	midfielders := max(1, size/3)
	forwards := size - keepers - defenders - midfielders

	roles := make([]Role, 0, size)
	for i := 0; i < keepers; i++ {
		roles = append(roles, RoleGoalkeeper)
	}
	for i := 0; i < defenders; i++ {
		roles = append(roles, RoleDefender)
	}
	for i := 0; i < midfielders; i++ {
		roles = append(roles, RoleMidfielder)
	}
	for i := 0; i < forwards; i++ {
		roles = append(roles, RoleForward)
	}
	return roles[:size]
}
