package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitros/designaciones/pkg/apperr"
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
	"github.com/arbitros/designaciones/pkg/rbac"
	"github.com/arbitros/designaciones/pkg/scope"
)

var (
	delA      = scope.Scope{UID: "u_a", Role: rbac.RoleDelegado, UserDelegateID: "del_a", ActiveDelegateID: "del_a", Effective: "del_a", Applicable: true}
	delB      = scope.Scope{UID: "u_b", Role: rbac.RoleDelegado, UserDelegateID: "del_b", ActiveDelegateID: "del_b", Effective: "del_b", Applicable: true}
	super     = scope.Scope{UID: "root", Role: rbac.RoleSuperusuario, Applicable: true}
	superA    = scope.Scope{UID: "root", Role: rbac.RoleSuperusuario, ActiveDelegateID: "del_a", Effective: "del_a", Applicable: true}
	asistente = scope.Scope{UID: "as", Role: rbac.RoleAsistente}
)

type fixture struct {
	repos *Repositories
	cache *cache.MemoryCache
	store *docstore.Store
}

func setupTestRepos(t *testing.T) fixture {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := docstore.New(db, docstore.SQLite{})
	require.NoError(t, store.Migrate(context.Background()))

	c := cache.NewMemoryCache(cache.DefaultConfig(), nil)
	return fixture{repos: New(store, c), cache: c, store: store}
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestLeagues_CreateAndUniqueness(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	l, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: " Liga Señor ", Season: "2026"}, "u_a")
	require.NoError(t, err)
	assert.Equal(t, "del_a", l.DelegateID)
	assert.Equal(t, "Liga Señor", l.Name)
	assert.Equal(t, "liga senor", l.NameLC)
	assert.Equal(t, "u_a", l.UpdatedBy)
	assert.False(t, l.CreatedAt.IsZero())

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "LIGA  SEÑOR", Season: "2026"}, "u_a")
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "Liga Señor", Season: "2027"}, "u_a")
	assert.NoError(t, err, "another season is a different league")

	_, err = f.repos.Leagues.Create(ctx, delB, LeagueInput{Name: "Liga Señor", Season: "2026"}, "u_b")
	assert.NoError(t, err, "same name in another delegate is allowed")
}

func TestUniqueKeys_ClaimedKeyConflicts(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	keys := f.store.Collection(CollectionUniqueKeys)

	// A key claimed by a create whose document is not visible yet
	claimed := f.repos.Leagues.uniqueKey("del_a", leagueKey(League{NameLC: "primera", SeasonLC: "2026"}))
	marker, err := docstore.NewDocument(claimed, "del_a", uniqueMarker{Collection: CollectionLeagues, DocumentID: "pending"})
	require.NoError(t, err)
	_, err = keys.Create(ctx, marker)
	require.NoError(t, err)

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "Primera", Season: "2026"}, "u_a")
	assert.True(t, apperr.IsConflict(err), "got %v", err)
	n, err := f.store.Collection(CollectionLeagues).Count(ctx, docstore.Query{})
	require.NoError(t, err)
	assert.Zero(t, n, "conflicting create is rolled back")

	_, err = f.repos.Leagues.Create(ctx, delB, LeagueInput{Name: "Primera", Season: "2026"}, "u_b")
	require.NoError(t, err, "keys are per delegate")
	_, err = f.repos.Venues.Create(ctx, delA, VenueInput{Name: "Primera", Municipio: "Alcalá"})
	require.NoError(t, err, "keys are per collection")

	n, err = keys.Count(ctx, docstore.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUniqueKeys_RenameReleasesKey(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	a, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "A", Season: "2026"}, "u_a")
	require.NoError(t, err)
	_, err = f.repos.Leagues.Update(ctx, delA, a.ID, LeagueInput{Name: "C", Season: "2026"}, "u_a")
	require.NoError(t, err)

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "A", Season: "2026"}, "u_a")
	assert.NoError(t, err, "old name is free again")
	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "c", Season: "2026"}, "u_a")
	assert.True(t, apperr.IsConflict(err), "new name is taken")

	_, err = f.repos.Leagues.Update(ctx, delA, a.ID, LeagueInput{Name: "C", Season: "2026"}, "u_a2")
	assert.NoError(t, err, "unchanged key is kept")
}

func TestLeagues_Validation(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	_, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "", Season: " "}, "u_a")
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "season")

	_, err = f.repos.Leagues.Create(ctx, super, LeagueInput{Name: "Liga", Season: "2026"}, "root")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "delegateId")

	l, err := f.repos.Leagues.Create(ctx, super, LeagueInput{Name: "Liga", Season: "2026", DelegateID: "del_b"}, "root")
	require.NoError(t, err)
	assert.Equal(t, "del_b", l.DelegateID)
}

func TestLeagues_ScopeIsolation(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	a, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "A", Season: "2026"}, "u_a")
	require.NoError(t, err)
	b, err := f.repos.Leagues.Create(ctx, delB, LeagueInput{Name: "B", Season: "2026"}, "u_b")
	require.NoError(t, err)

	_, err = f.repos.Leagues.Get(ctx, delA, b.ID)
	assert.True(t, apperr.IsNotFound(err), "other delegate's league must look absent")

	got, err := f.repos.Leagues.Get(ctx, superA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	listA, err := f.repos.Leagues.List(ctx, delA)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, a.ID, listA[0].ID)

	all, err := f.repos.Leagues.List(ctx, super)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.repos.Leagues.List(ctx, asistente)
	assert.True(t, apperr.IsAuthorization(err))
	_, err = f.repos.Leagues.Get(ctx, scope.Scope{}, a.ID)
	assert.True(t, apperr.IsAuthorization(err))

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "X", Season: "2026", DelegateID: "del_b"}, "u_a")
	assert.True(t, apperr.IsAuthorization(err), "a delegado cannot write into another delegate")

	_, err = f.repos.Leagues.Update(ctx, delA, b.ID, LeagueInput{Name: "Hack", Season: "2026"}, "u_a")
	assert.True(t, apperr.IsNotFound(err))
}

func TestLeagues_ListCacheIsInvalidatedByWrites(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	_, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "A", Season: "2026"}, "u_a")
	require.NoError(t, err)

	list, err := f.repos.Leagues.List(ctx, delA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = f.cache.Get(ctx, delA.CacheKey(CollectionLeagues, "list"))
	require.NoError(t, err, "list should be cached")

	all, err := f.repos.Leagues.List(ctx, super)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "B", Season: "2026"}, "u_a")
	require.NoError(t, err)

	list, err = f.repos.Leagues.List(ctx, delA)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	all, err = f.repos.Leagues.List(ctx, super)
	require.NoError(t, err)
	assert.Len(t, all, 2, "unscoped view is invalidated too")
}

func TestLeagues_Update(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	a, err := f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "A", Season: "2026"}, "u_a")
	require.NoError(t, err)
	_, err = f.repos.Leagues.Create(ctx, delA, LeagueInput{Name: "B", Season: "2026"}, "u_a")
	require.NoError(t, err)

	_, err = f.repos.Leagues.Update(ctx, delA, a.ID, LeagueInput{Name: "b", Season: "2026"}, "u_a")
	assert.True(t, apperr.IsConflict(err))

	updated, err := f.repos.Leagues.Update(ctx, delA, a.ID, LeagueInput{Name: "Á renamed", Season: "2026"}, "u_a2")
	require.NoError(t, err)
	assert.Equal(t, "a renamed", updated.NameLC)
	assert.Equal(t, "u_a2", updated.UpdatedBy)
	assert.Equal(t, a.CreatedAt, updated.CreatedAt)

	got, err := f.repos.Leagues.Get(ctx, delA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Á renamed", got.Name)
}

// world is a small tenant with one match ready for designation
type world struct {
	league   *League
	group    *Group
	home     *Team
	away     *Team
	venue    *Venue
	matchday *Matchday
	match    *Match
	referee  *Referee
}

func buildWorld(t *testing.T, f fixture, sc scope.Scope) world {
	t.Helper()
	ctx := context.Background()
	var w world
	var err error

	w.league, err = f.repos.Leagues.Create(ctx, sc, LeagueInput{Name: "Liga " + sc.Effective, Season: "2026"}, sc.UID)
	require.NoError(t, err)
	w.group, err = f.repos.Groups.Create(ctx, sc, w.league.ID, GroupInput{Name: "Grupo 1"})
	require.NoError(t, err)
	w.venue, err = f.repos.Venues.Create(ctx, sc, VenueInput{Name: "Campo Municipal", Municipio: "Alcalá"})
	require.NoError(t, err)
	w.home, err = f.repos.Teams.Create(ctx, sc, w.group.ID, TeamInput{Name: "Local", Tier: strPtr("COMPLICADO"), VenueID: w.venue.ID})
	require.NoError(t, err)
	w.away, err = f.repos.Teams.Create(ctx, sc, w.group.ID, TeamInput{Name: "Visitante"})
	require.NoError(t, err)
	w.matchday, err = f.repos.Matchdays.Create(ctx, sc, w.group.ID, MatchdayInput{Number: 1, Date: "2026-03-07"})
	require.NoError(t, err)
	w.match, err = f.repos.Matches.Create(ctx, sc, w.matchday.ID, MatchInput{HomeTeamID: w.home.ID, AwayTeamID: w.away.ID, Time: "10:30"})
	require.NoError(t, err)
	w.referee, err = f.repos.Referees.Create(ctx, sc, RefereeInput{Name: "Ana Pérez", Level: intPtr(3)})
	require.NoError(t, err)
	return w
}

func TestGroupsTeamsMatchdays(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)

	_, err := f.repos.Groups.Create(ctx, delA, w.league.ID, GroupInput{Name: "grupo 1"})
	assert.True(t, apperr.IsConflict(err))
	_, err = f.repos.Groups.Create(ctx, delB, w.league.ID, GroupInput{Name: "Grupo 2"})
	assert.True(t, apperr.IsNotFound(err))

	groups, err := f.repos.Groups.ListByLeague(ctx, delA, w.league.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	teams, err := f.repos.Teams.ListByGroup(ctx, delA, w.group.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "local", teams[0].NameLC)
	assert.Equal(t, "COMPLICADO", string(*teams[0].Tier))

	_, err = f.repos.Teams.Create(ctx, delA, w.group.ID, TeamInput{Name: "LOCAL"})
	assert.True(t, apperr.IsConflict(err))
	_, err = f.repos.Teams.Create(ctx, delA, w.group.ID, TeamInput{Name: "Otro", Tier: strPtr("FACIL")})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.repos.Matchdays.Create(ctx, delA, w.group.ID, MatchdayInput{Number: 1, Date: "2026-03-14"})
	assert.True(t, apperr.IsConflict(err))
	_, err = f.repos.Matchdays.Create(ctx, delA, w.group.ID, MatchdayInput{Number: 2, Date: "14/03/2026"})
	assert.True(t, apperr.IsValidation(err))
	_, err = f.repos.Matchdays.Create(ctx, delA, w.group.ID, MatchdayInput{Number: 10, Date: "2026-05-14"})
	require.NoError(t, err)
	_, err = f.repos.Matchdays.Create(ctx, delA, w.group.ID, MatchdayInput{Number: 2, Date: "2026-03-14"})
	require.NoError(t, err)

	days, err := f.repos.Matchdays.ListByGroup(ctx, delA, w.group.ID)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{days[0].Number, days[1].Number, days[2].Number})
}

func TestTeams_SetTier(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)

	team, err := f.repos.Teams.SetTier(ctx, delA, w.away.ID, strPtr("MUY_COMPLICADO"))
	require.NoError(t, err)
	require.NotNil(t, team.Tier)
	assert.Equal(t, "MUY_COMPLICADO", string(*team.Tier))

	got, err := f.repos.Teams.Get(ctx, delA, w.away.ID)
	require.NoError(t, err)
	assert.Equal(t, team.Tier, got.Tier)

	team, err = f.repos.Teams.SetTier(ctx, delA, w.away.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, team.Tier)

	_, err = f.repos.Teams.SetTier(ctx, delA, w.away.ID, strPtr("nope"))
	assert.True(t, apperr.IsValidation(err))
	_, err = f.repos.Teams.SetTier(ctx, delB, w.away.ID, strPtr("REGULARES"))
	assert.True(t, apperr.IsNotFound(err))
}

func TestMatches_CreateValidation(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)

	assert.Equal(t, w.venue.ID, w.match.VenueID, "venue defaults to the home team's")
	assert.Equal(t, "2026-03-07", w.match.Date)

	_, err := f.repos.Matches.Create(ctx, delA, w.matchday.ID, MatchInput{HomeTeamID: w.home.ID, AwayTeamID: w.home.ID})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "awayTeamId")

	other := buildWorld(t, f, delB)
	_, err = f.repos.Matches.Create(ctx, delA, w.matchday.ID, MatchInput{HomeTeamID: w.home.ID, AwayTeamID: other.away.ID})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "awayTeamId")

	matches, err := f.repos.Matches.ListByMatchday(ctx, delA, w.matchday.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMatches_AssignAndOverride(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)
	second, err := f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Luis"})
	require.NoError(t, err)

	m, err := f.repos.Matches.Assign(ctx, delA, w.match.ID, w.referee.ID, "u_a", false)
	require.NoError(t, err)
	assert.Equal(t, w.referee.ID, m.RefereeID)
	assert.Equal(t, "u_a", m.AssignedBy)
	require.NotNil(t, m.AssignedAt)

	_, err = f.repos.Matches.Assign(ctx, delA, w.match.ID, w.referee.ID, "u_a", false)
	assert.NoError(t, err, "re-assigning the same referee is not an override")

	_, err = f.repos.Matches.Assign(ctx, delA, w.match.ID, second.ID, "u_a", false)
	assert.True(t, apperr.IsAuthorization(err))

	m, err = f.repos.Matches.Assign(ctx, superA, w.match.ID, second.ID, "root", true)
	require.NoError(t, err)
	assert.Equal(t, second.ID, m.RefereeID)

	got, err := f.repos.Matches.Get(ctx, delA, w.match.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.RefereeID, "cached match is invalidated by assignment")

	m, err = f.repos.Matches.Unassign(ctx, delA, w.match.ID, "u_a")
	require.NoError(t, err)
	assert.False(t, m.Designated())
	assert.Nil(t, m.AssignedAt)
}

func TestMatches_AssignRejectsForeignOrInactiveReferee(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()
	w := buildWorld(t, f, delA)
	other := buildWorld(t, f, delB)
	inactive, err := f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Retirado", Active: boolPtr(false)})
	require.NoError(t, err)

	_, err = f.repos.Matches.Assign(ctx, delA, w.match.ID, other.referee.ID, "u_a", false)
	assert.True(t, apperr.IsValidation(err))
	_, err = f.repos.Matches.Assign(ctx, super, w.match.ID, other.referee.ID, "root", true)
	assert.True(t, apperr.IsValidation(err), "referee and match must share a delegate")
	_, err = f.repos.Matches.Assign(ctx, delA, w.match.ID, inactive.ID, "u_a", false)
	assert.True(t, apperr.IsValidation(err))
	_, err = f.repos.Matches.Assign(ctx, delB, w.match.ID, other.referee.ID, "u_b", false)
	assert.True(t, apperr.IsNotFound(err))
}

func TestReferees_List(t *testing.T) {
	f := setupTestRepos(t)
	ctx := context.Background()

	_, err := f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Zoe"})
	require.NoError(t, err)
	_, err = f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Álvaro", Active: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "zoe"})
	assert.True(t, apperr.IsConflict(err))
	_, err = f.repos.Referees.Create(ctx, delA, RefereeInput{Name: "Bad", Level: intPtr(9), Email: "nope"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "level")
	assert.Contains(t, verr.Fields, "email")

	all, err := f.repos.Referees.List(ctx, delA, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alvaro", all[0].NameLC)
	assert.Equal(t, DefaultRefereeLevel, all[1].Level)

	active, err := f.repos.Referees.List(ctx, delA, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Zoe", active[0].Name)
}

func boolPtr(b bool) *bool { return &b }
