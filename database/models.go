package database

import "time"

type MatchRecord struct {
	ID            int       `db:"id"`
	UID           string    `db:"uid"`
	SessionCode   string    `db:"session_code"`
	HomeTeam      string    `db:"home_team"`
	AwayTeam      string    `db:"away_team"`
	HomeGoals     int       `db:"home_goals"`
	AwayGoals     int       `db:"away_goals"`
	ManOfTheMatch string    `db:"man_of_the_match"`
	Document      string    `db:"document"`
	PlayedAt      time.Time `db:"played_at"`
}

type ContactRecord struct {
	ID        int       `db:"id"`
	UserID    string    `db:"user_id"`
	FirstSeen time.Time `db:"first_seen"`
}
