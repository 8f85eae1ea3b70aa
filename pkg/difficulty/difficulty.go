// Package difficulty maps team tiers to the Match Difficulty Score (MDS).
package difficulty

// Tier is the ordinal difficulty classification of a team
type Tier string

const (
	TierTranquilo     Tier = "TRANQUILO"
	TierRegulares     Tier = "REGULARES"
	TierComplicado    Tier = "COMPLICADO"
	TierMuyComplicado Tier = "MUY_COMPLICADO"
)

const (
	// MinMDS is the score of the easiest match
	MinMDS = 1
	// MaxMDS is the score of the hardest match
	MaxMDS = 4
)

var tierScores = map[Tier]int{
	TierTranquilo:     1,
	TierRegulares:     2,
	TierComplicado:    3,
	TierMuyComplicado: 4,
}

// Tiers returns every tier from easiest to hardest
func Tiers() []Tier {
	return []Tier{TierTranquilo, TierRegulares, TierComplicado, TierMuyComplicado}
}

// ParseTier converts a stored value into a Tier
func ParseTier(s string) (Tier, bool) {
	t := Tier(s)
	_, ok := tierScores[t]
	return t, ok
}

// Valid reports whether t is a known tier
func (t Tier) Valid() bool {
	_, ok := tierScores[t]
	return ok
}

// TierToMDS returns the 1..4 score of a tier. ok is false for unknown tiers.
func TierToMDS(t Tier) (score int, ok bool) {
	score, ok = tierScores[t]
	return score, ok
}

// TierPtrToMDS is TierToMDS for an optional tier
func TierPtrToMDS(t *Tier) (int, bool) {
	if t == nil {
		return 0, false
	}
	return TierToMDS(*t)
}

// ComputeMatchMDS returns the MDS of a match from its teams' tiers.
// The hardest side governs: the result is the max of the present scores, the single
// present score when only one side is classified, and nil when neither is.
func ComputeMatchMDS(home, away *Tier) *int {
	homeScore, homeOK := TierPtrToMDS(home)
	awayScore, awayOK := TierPtrToMDS(away)

	switch {
	case homeOK && awayOK:
		mds := max(homeScore, awayScore)
		return &mds
	case homeOK:
		return &homeScore
	case awayOK:
		return &awayScore
	default:
		return nil
	}
}
