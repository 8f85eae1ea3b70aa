package repository

import (
	"github.com/arbitros/designaciones/pkg/cache"
	"github.com/arbitros/designaciones/pkg/docstore"
)

// Repositories bundles every entity repository over one store and cache
type Repositories struct {
	Leagues   *LeagueRepository
	Groups    *GroupRepository
	Teams     *TeamRepository
	Venues    *VenueRepository
	Referees  *RefereeRepository
	Matchdays *MatchdayRepository
	Matches   *MatchRepository
	Rules     *RuleRepository
}

// New wires the repositories. c may be nil to disable caching.
func New(store *docstore.Store, c cache.Cache) *Repositories {
	leagues := NewLeagueRepository(store, c)
	groups := NewGroupRepository(store, c, leagues)
	venues := NewVenueRepository(store, c)
	teams := NewTeamRepository(store, c, groups, venues)
	referees := NewRefereeRepository(store, c)
	matchdays := NewMatchdayRepository(store, c, groups)

	return &Repositories{
		Leagues:   leagues,
		Groups:    groups,
		Teams:     teams,
		Venues:    venues,
		Referees:  referees,
		Matchdays: matchdays,
		Matches:   NewMatchRepository(store, c, matchdays, teams, venues, referees),
		Rules:     NewRuleRepository(store, c, referees),
	}
}
