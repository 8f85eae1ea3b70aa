package repository

import (
	"time"

	"github.com/arbitros/designaciones/pkg/difficulty"
)

// League is a competition of one season owned by a delegate
type League struct {
	ID         string    `json:"id"`
	DelegateID string    `json:"delegateId"`
	Name       string    `json:"name"`
	NameLC     string    `json:"name_lc"`
	Season     string    `json:"season"`
	SeasonLC   string    `json:"season_lc"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	UpdatedBy  string    `json:"updatedBy,omitempty"`
}

// LeagueInput creates or renames a league
type LeagueInput struct {
	Name       string `json:"name"`
	Season     string `json:"season"`
	DelegateID string `json:"delegateId,omitempty"`
}

// Group is a division of a league
type Group struct {
	ID         string    `json:"id"`
	DelegateID string    `json:"delegateId"`
	LeagueID   string    `json:"leagueId"`
	Name       string    `json:"name"`
	NameLC     string    `json:"name_lc"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GroupInput creates a group
type GroupInput struct {
	Name string `json:"name"`
}

// Team plays in one group. Tier drives the match difficulty score.
type Team struct {
	ID         string           `json:"id"`
	DelegateID string           `json:"delegateId"`
	LeagueID   string           `json:"leagueId"`
	GroupID    string           `json:"groupId"`
	Name       string           `json:"name"`
	NameLC     string           `json:"name_lc"`
	Tier       *difficulty.Tier `json:"tier,omitempty"`
	VenueID    string           `json:"venueId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// TeamInput creates a team
type TeamInput struct {
	Name    string  `json:"name"`
	Tier    *string `json:"tier,omitempty"`
	VenueID string  `json:"venueId,omitempty"`
}

// Venue is a pitch in a municipality
type Venue struct {
	ID          string    `json:"id"`
	DelegateID  string    `json:"delegateId"`
	Name        string    `json:"name"`
	NameLC      string    `json:"name_lc"`
	Municipio   string    `json:"municipio"`
	MunicipioLC string    `json:"municipio_lc"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VenueInput creates a venue
type VenueInput struct {
	Name       string `json:"name"`
	Municipio  string `json:"municipio"`
	Address    string `json:"address,omitempty"`
	DelegateID string `json:"delegateId,omitempty"`
}

// Referee can be designated to matches. Level is the highest MDS the referee is
// expected to handle.
type Referee struct {
	ID          string    `json:"id"`
	DelegateID  string    `json:"delegateId"`
	Name        string    `json:"name"`
	NameLC      string    `json:"name_lc"`
	Email       string    `json:"email,omitempty"`
	Municipio   string    `json:"municipio,omitempty"`
	MunicipioLC string    `json:"municipio_lc,omitempty"`
	Level       int       `json:"level"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RefereeInput creates a referee
type RefereeInput struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Municipio  string `json:"municipio,omitempty"`
	Level      *int   `json:"level,omitempty"`
	Active     *bool  `json:"active,omitempty"`
	DelegateID string `json:"delegateId,omitempty"`
}

// Matchday is one round of a group, played on Date (YYYY-MM-DD)
type Matchday struct {
	ID         string    `json:"id"`
	DelegateID string    `json:"delegateId"`
	LeagueID   string    `json:"leagueId"`
	GroupID    string    `json:"groupId"`
	Number     int       `json:"number"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MatchdayInput creates a matchday
type MatchdayInput struct {
	Number int    `json:"number"`
	Date   string `json:"date"`
}

// Match is a fixture of a matchday and its designation
type Match struct {
	ID         string     `json:"id"`
	DelegateID string     `json:"delegateId"`
	GroupID    string     `json:"groupId"`
	MatchdayID string     `json:"matchdayId"`
	HomeTeamID string     `json:"homeTeamId"`
	AwayTeamID string     `json:"awayTeamId"`
	VenueID    string     `json:"venueId,omitempty"`
	Date       string     `json:"date"`
	Time       string     `json:"time,omitempty"`
	RefereeID  string     `json:"refereeId,omitempty"`
	AssignedBy string     `json:"assignedBy,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Designated reports whether a referee is assigned
func (m Match) Designated() bool {
	return m.RefereeID != ""
}

// MatchInput creates a match. Date defaults to the matchday date.
type MatchInput struct {
	HomeTeamID string `json:"homeTeamId"`
	AwayTeamID string `json:"awayTeamId"`
	VenueID    string `json:"venueId,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
}

// DateLayout is the layout of Matchday.Date and Match.Date
const DateLayout = "2006-01-02"

// TimeLayout is the layout of Match.Time
const TimeLayout = "15:04"
