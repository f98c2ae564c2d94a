package bot

import "log"

// WelcomeMessage greets a user on their very first contact with the bot.
const WelcomeMessage = "¡Bienvenido a PATABOL! Es un juego de simulación de fútbol donde tú y otro jugador " +
	"elegís patabolistas de un mismo pool, formáis vuestros equipos y se simula un partido " +
	"automáticamente. Para jugar: crea una sesión con /sesion <nickname> (te da un código para compartir) " +
	"o únete a una existente con /u <código> <nickname>. Escribí /h para ver todos los comandos."

// ContactStore remembers which users have talked to the bot before. The
// sqlite repository implements it so the welcome survives restarts.
type ContactStore interface {
	HasContact(userID string) (bool, error)
	RecordContact(userID string) error
}

// Greeter decides whether a user gets the welcome message and records the
// contact either way.
type Greeter struct {
	Store ContactStore
}

// Greet returns the welcome message on first contact, empty otherwise.
func (g *Greeter) Greet(userID string) string {
	if g == nil || g.Store == nil {
		return ""
	}
	seen, err := g.Store.HasContact(userID)
	if err != nil {
		log.Printf("❌ checking contact %s: %v", userID, err)
		return ""
	}
	if err := g.Store.RecordContact(userID); err != nil {
		log.Printf("❌ recording contact %s: %v", userID, err)
	}
	if seen {
		return ""
	}
	return WelcomeMessage
}
