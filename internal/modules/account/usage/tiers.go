package usage

// Unlimited marks a resource with no cap for the tier.
const Unlimited = -1

// Subscription tiers.
const (
	TierFree          = "free"
	TierAdventurer    = "adventurer"
	TierDungeonMaster = "dungeon_master"
)

// Tracked resources.
const (
	ResourceEncounters     = "encounters"
	ResourceCharacters     = "characters"
	ResourceParties        = "parties"
	ResourceCustomMonsters = "custom_monsters"
)

// Limits is a tier's cap table over the tracked resources.
type Limits struct {
	Encounters     int
	Characters     int
	Parties        int
	CustomMonsters int
}

var tierLimits = map[string]Limits{
	TierFree: {
		Encounters:     5,
		Characters:     10,
		Parties:        1,
		CustomMonsters: 0,
	},
	TierAdventurer: {
		Encounters:     50,
		Characters:     100,
		Parties:        10,
		CustomMonsters: 25,
	},
	TierDungeonMaster: {
		Encounters:     Unlimited,
		Characters:     Unlimited,
		Parties:        Unlimited,
		CustomMonsters: Unlimited,
	},
}

// LimitsFor returns the cap table for a tier. Unknown tiers fall back
// to free, the most restrictive table.
func LimitsFor(tier string) Limits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierFree]
}

// KnownTier reports whether the tier name has a cap table.
func KnownTier(tier string) bool {
	_, ok := tierLimits[tier]
	return ok
}
