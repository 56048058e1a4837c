package usage

import (
	"fmt"
	"math"

	"github.com/encounter-space/core/internal/models"
)

// Warning levels derived from a usage percentage.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Counters are an account's current usage numbers.
type Counters struct {
	Encounters     int `json:"encounters"`
	Characters     int `json:"characters"`
	Parties        int `json:"parties"`
	CustomMonsters int `json:"custom_monsters"`
}

// CountersFor reads the usage counters off an account record.
func CountersFor(account *models.AccountModel) Counters {
	return Counters{
		Encounters:     account.EncounterCount,
		Characters:     account.CharacterCount,
		Parties:        account.PartyCount,
		CustomMonsters: account.MonsterCount,
	}
}

// ResourceUsage is one resource's position against its tier cap.
type ResourceUsage struct {
	Resource   string  `json:"resource"`
	Current    int     `json:"current"`
	Limit      int     `json:"limit"`
	Unlimited  bool    `json:"unlimited"`
	Percentage float64 `json:"percentage"`
	Level      string  `json:"level"`
}

// Warning is emitted when a resource crosses half of its cap.
type Warning struct {
	Resource   string  `json:"resource"`
	Percentage float64 `json:"percentage"`
	Level      string  `json:"level"`
	Message    string  `json:"message"`
}

// Percentage computes current/limit as a percentage rounded to two
// decimals. An unbounded limit is always 0. A zero limit is 100 the
// moment anything is used, else 0.
func Percentage(current, limit int) float64 {
	if limit == Unlimited {
		return 0
	}
	if limit == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return math.Round(float64(current)/float64(limit)*100*100) / 100
}

// LevelFor maps a percentage onto a warning level.
func LevelFor(pct float64) string {
	switch {
	case pct >= 80:
		return LevelCritical
	case pct >= 50:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Report computes every tracked resource's usage for a tier.
func Report(counters Counters, limits Limits) []ResourceUsage {
	entries := []struct {
		resource string
		current  int
		limit    int
	}{
		{ResourceEncounters, counters.Encounters, limits.Encounters},
		{ResourceCharacters, counters.Characters, limits.Characters},
		{ResourceParties, counters.Parties, limits.Parties},
		{ResourceCustomMonsters, counters.CustomMonsters, limits.CustomMonsters},
	}

	report := make([]ResourceUsage, 0, len(entries))
	for _, e := range entries {
		pct := Percentage(e.current, e.limit)
		report = append(report, ResourceUsage{
			Resource:   e.resource,
			Current:    e.current,
			Limit:      e.limit,
			Unlimited:  e.limit == Unlimited,
			Percentage: pct,
			Level:      LevelFor(pct),
		})
	}
	return report
}

// WarningsFor emits a warning for each bounded resource at or above
// half of its cap. The message changes once the cap is reached.
func WarningsFor(counters Counters, limits Limits) []Warning {
	var warnings []Warning
	for _, u := range Report(counters, limits) {
		if u.Unlimited || u.Percentage < 50 {
			continue
		}
		msg := fmt.Sprintf("You have used %.0f%% of your %s allowance (%d of %d).",
			u.Percentage, u.Resource, u.Current, u.Limit)
		if u.Percentage >= 100 {
			msg = fmt.Sprintf("You have reached your limit of %d %s.", u.Limit, u.Resource)
		}
		warnings = append(warnings, Warning{
			Resource:   u.Resource,
			Percentage: u.Percentage,
			Level:      u.Level,
			Message:    msg,
		})
	}
	return warnings
}
