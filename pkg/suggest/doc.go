// Package suggest ranks the referees a delegate could designate to a match.
//
// # Overview
//
// A suggestion combines two signals:
//
//   - the referee's internal rules, evaluated against the match (home and
//     away teams, venue municipality and weekday)
//   - the match difficulty score (MDS) compared with the referee level
//
// Referees blocked by a prohibition are never suggested. Everyone else gets
//
//	score = weightAdjustment - max(0, MDS - level)
//
// so preferences raise a referee and a match above their level lowers them.
// A match without difficulty only uses preferences.
//
// # Ordering
//
// Candidates are sorted by score (highest first), then by normalized name and
// id. Referees already designated to another match of the same matchday are
// marked busy and listed after every free referee.
//
// # Usage
//
//	svc := suggest.NewService(repos, metrics)
//	candidates, err := svc.Suggest(ctx, sc, matchID)
package suggest
