package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"patabol/sim"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	session_code TEXT NOT NULL,
	home_team TEXT NOT NULL,
	away_team TEXT NOT NULL,
	home_goals INTEGER NOT NULL,
	away_goals INTEGER NOT NULL,
	man_of_the_match TEXT NOT NULL,
	document TEXT NOT NULL,
	played_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_played_at ON matches(played_at);
CREATE INDEX IF NOT EXISTS idx_matches_session ON matches(session_code);

CREATE TABLE IF NOT EXISTS contacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL UNIQUE,
	first_seen TIMESTAMP NOT NULL
);
`

func (r *Repository) EnsureSchema() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// ArchiveMatch stores a finished match, flattening the result into its
// export document.
func (r *Repository) ArchiveMatch(sessionCode string, res *sim.MatchResult) error {
	doc, err := json.Marshal(res.Document())
	if err != nil {
		return fmt.Errorf("serializing match document: %w", err)
	}
	rec := MatchRecord{
		UID:           uuid.NewString(),
		SessionCode:   sessionCode,
		HomeTeam:      res.HomeTeam,
		AwayTeam:      res.AwayTeam,
		HomeGoals:     res.HomeGoals,
		AwayGoals:     res.AwayGoals,
		ManOfTheMatch: res.ManOfTheMatch,
		Document:      string(doc),
		PlayedAt:      time.Now().UTC(),
	}
	_, err = r.db.NamedExec(`
		INSERT INTO matches (uid, session_code, home_team, away_team, home_goals, away_goals, man_of_the_match, document, played_at)
		VALUES (:uid, :session_code, :home_team, :away_team, :home_goals, :away_goals, :man_of_the_match, :document, :played_at)
	`, rec)
	if err != nil {
		return err
	}
	log.Printf("💾 match archived uid=%s session=%s", rec.UID, sessionCode)
	return nil
}

func (r *Repository) RecentMatches(limit int) ([]MatchRecord, error) {
	var matches []MatchRecord
	err := r.db.Select(&matches,
		"SELECT * FROM matches ORDER BY played_at DESC, id DESC LIMIT ?", limit)
	return matches, err
}

func (r *Repository) TodaysMatches(today, tomorrow time.Time) ([]MatchRecord, error) {
	var matches []MatchRecord
	err := r.db.Select(&matches,
		"SELECT * FROM matches WHERE played_at >= ? AND played_at < ? ORDER BY played_at", today, tomorrow)
	return matches, err
}

func (r *Repository) GetMatchByUID(uid string) (*MatchRecord, error) {
	var match MatchRecord
	err := r.db.Get(&match, "SELECT * FROM matches WHERE uid = ?", uid)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *Repository) HasContact(userID string) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM contacts WHERE user_id = ?", userID)
	return count > 0, err
}

func (r *Repository) RecordContact(userID string) error {
	_, err := r.db.Exec(
		"INSERT OR IGNORE INTO contacts (user_id, first_seen) VALUES (?, ?)",
		userID, time.Now().UTC())
	return err
}

func (r *Repository) ContactCount() (int, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM contacts")
	return count, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
