package session

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"patabol/sim"
	"patabol/utils"
)

// DefaultTTL is how long an idle session survives before the sweeper
// removes it.
const DefaultTTL = 2 * time.Hour

// PoolFunc builds a fresh patabolista pool for a new session.
type PoolFunc func(seed int64) ([]*sim.Player, error)

// Manager owns every live session. All access is serialized through its
// mutex; callers outside this package never touch a live Session, they
// get point-in-time Views taken while the lock is held.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	userTo   map[string]string

	newPool PoolFunc
	rng     *rand.Rand
	now     func() time.Time
}

// NewManager wires a manager around a pool builder. The rng seeds session
// codes, team names and bot picks; it is clock-seeded in production and
// fixed in tests.
func NewManager(newPool PoolFunc, rng *rand.Rand) *Manager {
	if newPool == nil {
		newPool = func(seed int64) ([]*sim.Player, error) {
			return sim.NewGenerator(seed).GeneratePool(sim.DefaultPoolSize)
		}
	}
	if rng == nil {
		rng = utils.NewSeededRNG(utils.ClockSeed(time.Now()))
	}
	return &Manager{
		sessions: make(map[string]*Session),
		userTo:   make(map[string]string),
		newPool:  newPool,
		rng:      rng,
		now:      time.Now,
	}
}

// SetClock overrides the manager's notion of now. Test hook.
func (mgr *Manager) SetClock(now func() time.Time) { mgr.now = now }

func (mgr *Manager) generateCode() string {
	for {
		var b strings.Builder
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeChars[mgr.rng.Intn(len(codeChars))])
		}
		code := b.String()
		if _, taken := mgr.sessions[code]; !taken {
			return code
		}
	}
}

func (mgr *Manager) randomTeamName() string {
	return defaultTeamNames[mgr.rng.Intn(len(defaultTeamNames))]
}

// Create opens a session with the creator already joined and returns it.
func (mgr *Manager) Create(userID, nickname, teamName string) (*View, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if _, in := mgr.userTo[userID]; in {
		return nil, ErrAlreadyInSession
	}

	pool, err := mgr.newPool(mgr.rng.Int63())
	if err != nil {
		return nil, fmt.Errorf("building session pool: %w", err)
	}

	if teamName == "" {
		teamName = mgr.randomTeamName()
	}
	now := mgr.now()
	s := &Session{
		Code:       mgr.generateCode(),
		Pool:       pool,
		CreatorID:  userID,
		State:      StateSelectingTeams,
		members:    make(map[string]*Member),
		CreatedAt:  now,
		LastActive: now,
	}
	s.members[userID] = &Member{
		UserID:    userID,
		Nickname:  nickname,
		TeamName:  teamName,
		TeamState: TeamPending,
	}
	s.joinOrder = append(s.joinOrder, userID)

	mgr.sessions[s.Code] = s
	mgr.userTo[userID] = s.Code
	log.Printf("⚽ session created code=%s creator=%s", s.Code, userID)
	return s.view(), nil
}

// Join adds a user to an existing session.
func (mgr *Manager) Join(code, userID, nickname, teamName string) (*View, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, ok := mgr.sessions[normalizeCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, normalizeCode(code))
	}
	if len(s.members) >= MaxMembers {
		return nil, ErrSessionFull
	}
	if _, in := s.members[userID]; in {
		return nil, ErrAlreadyInSession
	}
	if teamName == "" {
		teamName = mgr.randomTeamName()
	}
	s.members[userID] = &Member{
		UserID:    userID,
		Nickname:  nickname,
		TeamName:  teamName,
		TeamState: TeamPending,
	}
	s.joinOrder = append(s.joinOrder, userID)
	mgr.userTo[userID] = s.Code
	mgr.touch(s)
	s.refreshState()
	log.Printf("👤 user=%s joined session=%s", userID, s.Code)
	return s.view(), nil
}

// AddBot seats the house bot as the second member. Creator only.
func (mgr *Manager) AddBot(code, requesterID, teamName string) (*View, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, ok := mgr.sessions[normalizeCode(code)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, normalizeCode(code))
	}
	if s.CreatorID != requesterID {
		return nil, ErrNotCreator
	}
	if len(s.members) >= MaxMembers {
		return nil, ErrSessionFull
	}
	if _, in := s.members[BotUserID]; in {
		return nil, ErrBotAlreadyJoined
	}
	if teamName == "" {
		teamName = mgr.randomTeamName()
	}
	s.members[BotUserID] = &Member{
		UserID:    BotUserID,
		Nickname:  BotNickname,
		TeamName:  teamName,
		TeamState: TeamPending,
	}
	s.joinOrder = append(s.joinOrder, BotUserID)
	mgr.touch(s)
	s.refreshState()
	log.Printf("🤖 bot joined session=%s", s.Code)
	return s.view(), nil
}

// Leave removes a user from their session. A session with no humans left
// is torn down with it.
func (mgr *Manager) Leave(userID string) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	code, in := mgr.userTo[userID]
	if !in {
		return
	}
	delete(mgr.userTo, userID)
	s, ok := mgr.sessions[code]
	if !ok {
		return
	}
	delete(s.members, userID)
	s.refreshState()
	if len(s.HumanIDs()) == 0 {
		delete(mgr.sessions, code)
		log.Printf("🧹 session=%s removed, no humans left", code)
	}
}

// ViewByCode snapshots a session by its share code.
func (mgr *Manager) ViewByCode(code string) (*View, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	s, ok := mgr.sessions[normalizeCode(code)]
	if !ok {
		return nil, false
	}
	return s.view(), true
}

// ViewByUser snapshots the session a user currently sits in.
func (mgr *Manager) ViewByUser(userID string) (*View, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	code, in := mgr.userTo[userID]
	if !in {
		return nil, false
	}
	s, ok := mgr.sessions[code]
	if !ok {
		return nil, false
	}
	return s.view(), true
}

// SelectTeam replaces a member's picks with the given players. Picks must
// come from the pool slice still available to that member.
func (mgr *Manager) SelectTeam(userID string, picks []*sim.Player) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, m, err := mgr.memberOf(userID)
	if err != nil {
		return err
	}
	if len(picks) == 0 {
		return ErrTeamEmpty
	}
	if len(picks) > MaxTeamSize {
		return ErrTeamTooLarge
	}
	available := make(map[*sim.Player]bool)
	for _, p := range s.AvailablePoolFor(userID) {
		available[p] = true
	}
	seen := make(map[*sim.Player]bool)
	for _, p := range picks {
		if !available[p] {
			return fmt.Errorf("%w: %s", ErrPlayerDrafted, p.ID)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s picked twice", ErrPlayerDrafted, p.ID)
		}
		seen[p] = true
	}
	m.Team = append([]*sim.Player(nil), picks...)
	m.TeamState = TeamPending
	mgr.touch(s)
	s.refreshState()
	return nil
}

// AutoSelectTeam fills a member's team randomly: a goalkeeper first when
// one is still available, then the rest.
func (mgr *Manager) AutoSelectTeam(userID string) ([]*sim.Player, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, m, err := mgr.memberOf(userID)
	if err != nil {
		return nil, err
	}
	team := mgr.autoPick(s, userID)
	if len(team) == 0 {
		return nil, ErrTeamEmpty
	}
	m.Team = team
	m.TeamState = TeamPending
	mgr.touch(s)
	s.refreshState()
	// copy, so later roster edits never share a backing array with the caller
	return append([]*sim.Player(nil), team...), nil
}

func (mgr *Manager) autoPick(s *Session, userID string) []*sim.Player {
	available := s.AvailablePoolFor(userID)
	if len(available) == 0 {
		return nil
	}
	want := MaxTeamSize
	if len(available) < want {
		want = len(available)
	}

	var team []*sim.Player
	var keepers []*sim.Player
	for _, p := range available {
		if p.Role == sim.RoleGoalkeeper {
			keepers = append(keepers, p)
		}
	}
	if len(keepers) > 0 {
		team = append(team, keepers[mgr.rng.Intn(len(keepers))])
	}

	rest := make([]*sim.Player, 0, len(available))
	for _, p := range available {
		if len(team) > 0 && p == team[0] {
			continue
		}
		rest = append(rest, p)
	}
	mgr.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, p := range rest {
		if len(team) >= want {
			break
		}
		team = append(team, p)
	}
	return team
}

// RemoveFromTeam returns one pick to the pool and resets confirmation.
func (mgr *Manager) RemoveFromTeam(userID, playerID string) (*sim.Player, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, m, err := mgr.memberOf(userID)
	if err != nil {
		return nil, err
	}
	for i, p := range m.Team {
		if p.ID == playerID {
			m.Team = append(m.Team[:i], m.Team[i+1:]...)
			m.TeamState = TeamPending
			mgr.touch(s)
			s.refreshState()
			return p, nil
		}
	}
	return nil, fmt.Errorf("player %s is not on the team", playerID)
}

// Confirm locks a member's team. When the opponent is the bot and the bot
// has not picked yet, the bot auto-picks and auto-confirms here, so a
// human confirming against the bot is enough to reach kickoff. The second
// return is true when both teams are confirmed and the match can start;
// the view is the roster snapshot the match runs from.
func (mgr *Manager) Confirm(userID string) (*View, bool, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, m, err := mgr.memberOf(userID)
	if err != nil {
		return nil, false, err
	}
	if !m.HasTeam() {
		return nil, false, ErrTeamEmpty
	}
	m.TeamState = TeamConfirmed

	if bot := s.members[BotUserID]; bot != nil && !bot.HasTeam() {
		if team := mgr.autoPick(s, BotUserID); len(team) > 0 {
			bot.Team = team
			bot.TeamState = TeamConfirmed
		}
	}

	mgr.touch(s)
	s.refreshState()
	return s.view(), s.AllConfirmed(), nil
}

// RecordResult stores the finished match on the session and marks it played.
func (mgr *Manager) RecordResult(code string, res *sim.MatchResult, home, away []*sim.Player) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	s, ok := mgr.sessions[normalizeCode(code)]
	if !ok {
		return
	}
	s.LastResult = res
	s.lastHomeTeam = append([]*sim.Player(nil), home...)
	s.lastAwayTeam = append([]*sim.Player(nil), away...)
	s.lastHomeName = res.HomeTeam
	s.lastAwayName = res.AwayTeam
	s.State = StateMatchPlayed
	mgr.touch(s)
}

// SweepExpired drops sessions idle longer than ttl and returns how many
// were removed.
func (mgr *Manager) SweepExpired(ttl time.Duration) int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	cutoff := mgr.now().Add(-ttl)
	removed := 0
	for code, s := range mgr.sessions {
		if s.LastActive.Before(cutoff) {
			for _, id := range s.HumanIDs() {
				delete(mgr.userTo, id)
			}
			delete(mgr.sessions, code)
			removed++
			log.Printf("🧹 session=%s expired", code)
		}
	}
	return removed
}

func (mgr *Manager) memberOf(userID string) (*Session, *Member, error) {
	code, in := mgr.userTo[userID]
	if !in {
		return nil, nil, ErrNotInSession
	}
	s, ok := mgr.sessions[code]
	if !ok {
		return nil, nil, ErrNotInSession
	}
	m := s.members[userID]
	if m == nil {
		return nil, nil, ErrNotInSession
	}
	return s, m, nil
}

func (mgr *Manager) touch(s *Session) {
	s.LastActive = mgr.now()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
