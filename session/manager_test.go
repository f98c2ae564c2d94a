package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patabol/sim"
	"patabol/utils"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(nil, utils.NewSeededRNG(7))
}

func TestCreateAndJoin(t *testing.T) {
	mgr := newTestManager(t)

	s, err := mgr.Create("tg:1", "Leo", "Los Rayos")
	require.NoError(t, err)
	assert.Len(t, s.Code, 6)
	assert.Len(t, s.Pool, sim.DefaultPoolSize)
	assert.Equal(t, StateSelectingTeams, s.State)
	assert.Equal(t, "tg:1", s.CreatorID)

	joined, err := mgr.Join(s.Code, "wa:2", "Ana", "")
	require.NoError(t, err)
	assert.Equal(t, s.Code, joined.Code)
	assert.NotEmpty(t, joined.Member("wa:2").TeamName, "omitted team names get a default")
	assert.Equal(t, []string{"tg:1", "wa:2"}, joined.HumanIDs())

	_, err = mgr.Join(s.Code, "cli:3", "Tres", "")
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestJoinCodeIsCaseInsensitive(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	_, err = mgr.Join("  "+s.Code+" ", "tg:2", "Ana", "")
	require.NoError(t, err)
}

func TestJoinUnknownCode(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Join("ZZZZZZ", "tg:1", "Leo", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCannotBeInTwoSessions(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)
	_, err = mgr.Create("tg:1", "Leo", "")
	assert.ErrorIs(t, err, ErrAlreadyInSession)
}

func TestAddBotCreatorOnly(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	_, err = mgr.AddBot(s.Code, "tg:2", "")
	assert.ErrorIs(t, err, ErrNotCreator)

	withBot, err := mgr.AddBot(s.Code, "tg:1", "")
	require.NoError(t, err)
	assert.NotNil(t, withBot.Member(BotUserID))

	_, err = mgr.AddBot(s.Code, "tg:1", "")
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestSelectTeamRejectsOpponentPicks(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)
	_, err = mgr.Join(s.Code, "tg:2", "Ana", "")
	require.NoError(t, err)

	require.NoError(t, mgr.SelectTeam("tg:1", s.Pool[:2]))

	err = mgr.SelectTeam("tg:2", s.Pool[1:3])
	assert.ErrorIs(t, err, ErrPlayerDrafted)

	require.NoError(t, mgr.SelectTeam("tg:2", s.Pool[2:4]))
	v, ok := mgr.ViewByCode(s.Code)
	require.True(t, ok)
	assert.Equal(t, StateBothReady, v.State)
}

func TestSelectTeamBounds(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	assert.ErrorIs(t, mgr.SelectTeam("tg:1", nil), ErrTeamEmpty)
	assert.ErrorIs(t, mgr.SelectTeam("tg:1", s.Pool[:MaxTeamSize+1]), ErrTeamTooLarge)
	assert.ErrorIs(t, mgr.SelectTeam("tg:1", []*sim.Player{s.Pool[0], s.Pool[0]}), ErrPlayerDrafted)
}

func TestAutoSelectPrefersGoalkeeper(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	team, err := mgr.AutoSelectTeam("tg:1")
	require.NoError(t, err)
	require.Len(t, team, MaxTeamSize)
	assert.Equal(t, sim.RoleGoalkeeper, team[0].Role)

	v, ok := mgr.ViewByUser("tg:1")
	require.True(t, ok)
	assert.Equal(t, team, v.Member("tg:1").Team)
}

func TestConfirmAgainstBotTriggersBotPick(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)
	_, err = mgr.AddBot(s.Code, "tg:1", "")
	require.NoError(t, err)

	_, err = mgr.AutoSelectTeam("tg:1")
	require.NoError(t, err)

	armed, ready, err := mgr.Confirm("tg:1")
	require.NoError(t, err)
	assert.True(t, ready, "bot must pick and confirm when the human confirms")

	bot := armed.Member(BotUserID)
	require.NotNil(t, bot)
	assert.NotEmpty(t, bot.Team)
	assert.True(t, bot.Confirmed())

	// bot picks never overlap the human's
	mine := make(map[*sim.Player]bool)
	for _, p := range armed.Member("tg:1").Team {
		mine[p] = true
	}
	for _, p := range bot.Team {
		assert.False(t, mine[p], "bot drafted %s from the human team", p.ID)
	}
}

func TestConfirmWithoutTeam(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)
	_, _, err = mgr.Confirm("tg:1")
	assert.ErrorIs(t, err, ErrTeamEmpty)
}

func TestLeaveTearsDownEmptySession(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)
	_, err = mgr.AddBot(s.Code, "tg:1", "")
	require.NoError(t, err)

	mgr.Leave("tg:1")
	_, ok := mgr.ViewByCode(s.Code)
	assert.False(t, ok, "a session with only the bot left must die")
	_, ok = mgr.ViewByUser("tg:1")
	assert.False(t, ok)
}

func TestRecordResultMarksPlayed(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	res := &sim.MatchResult{HomeTeam: "A", AwayTeam: "B", HomeGoals: 1}
	mgr.RecordResult(s.Code, res, s.Pool[:2], s.Pool[2:4])

	v, ok := mgr.ViewByCode(s.Code)
	require.True(t, ok)
	assert.Equal(t, StateMatchPlayed, v.State)
	assert.Same(t, res, v.LastResult)
	home, away, homeName, awayName := v.LastMatchTeams()
	assert.Len(t, home, 2)
	assert.Len(t, away, 2)
	assert.Equal(t, "A", homeName)
	assert.Equal(t, "B", awayName)
}

func TestViewsAreStableSnapshots(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	before, ok := mgr.ViewByCode(s.Code)
	require.True(t, ok)
	require.NoError(t, mgr.SelectTeam("tg:1", s.Pool[:3]))

	assert.Empty(t, before.Member("tg:1").Team, "a view must not move under the reader")
	after, ok := mgr.ViewByCode(s.Code)
	require.True(t, ok)
	assert.Len(t, after.Member("tg:1").Team, 3)
}

func TestConcurrentViewsDuringJoin(t *testing.T) {
	mgr := newTestManager(t)
	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if v, ok := mgr.ViewByUser("tg:1"); ok {
				_ = v.UndraftedPool()
				_ = v.AvailablePoolFor("tg:1")
				_ = v.HumanIDs()
			}
		}
	}()
	go func() {
		defer wg.Done()
		_, joinErr := mgr.Join(s.Code, "wa:2", "Ana", "")
		assert.NoError(t, joinErr)
	}()
	wg.Wait()

	v, ok := mgr.ViewByCode(s.Code)
	require.True(t, ok)
	assert.Len(t, v.Members, 2)
}

func TestSweepExpired(t *testing.T) {
	mgr := newTestManager(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.SetClock(func() time.Time { return base })

	s, err := mgr.Create("tg:1", "Leo", "")
	require.NoError(t, err)

	mgr.SetClock(func() time.Time { return base.Add(time.Hour) })
	assert.Zero(t, mgr.SweepExpired(DefaultTTL))

	mgr.SetClock(func() time.Time { return base.Add(3 * time.Hour) })
	assert.Equal(t, 1, mgr.SweepExpired(DefaultTTL))

	_, ok := mgr.ViewByCode(s.Code)
	assert.False(t, ok)
	_, ok = mgr.ViewByUser("tg:1")
	assert.False(t, ok, "sweep must also clear the user index")
}
