package usage

import (
	"strings"
	"testing"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		name    string
		current int
		limit   int
		want    float64
	}{
		{"zero of zero", 0, 0, 0},
		{"anything of zero is maxed", 5, 0, 100},
		{"unbounded is always zero", 9999, Unlimited, 0},
		{"zero of unbounded", 0, Unlimited, 0},
		{"half", 5, 10, 50},
		{"over the cap", 15, 10, 150},
		{"rounds to two decimals", 1, 3, 33.33},
		{"rounds up", 2, 3, 66.67},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Percentage(tc.current, tc.limit); got != tc.want {
				t.Fatalf("Percentage(%d, %d) = %v, want %v", tc.current, tc.limit, got, tc.want)
			}
		})
	}
}

func TestLevelForBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{0, LevelInfo},
		{49.99, LevelInfo},
		{50, LevelWarning},
		{79.99, LevelWarning},
		{80, LevelCritical},
		{100, LevelCritical},
		{150, LevelCritical},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.pct); got != tc.want {
			t.Errorf("LevelFor(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestWarningsForEmitsOnlyAboveHalf(t *testing.T) {
	limits := LimitsFor(TierAdventurer)
	counters := Counters{
		Encounters:     10, // 20%, silent
		Characters:     60, // 60%, warning
		Parties:        9,  // 90%, critical
		CustomMonsters: 25, // 100%, critical with reached message
	}

	warnings := WarningsFor(counters, limits)
	if len(warnings) != 3 {
		t.Fatalf("got %d warnings, want 3: %+v", len(warnings), warnings)
	}

	byResource := map[string]Warning{}
	for _, w := range warnings {
		byResource[w.Resource] = w
	}

	if _, ok := byResource[ResourceEncounters]; ok {
		t.Error("encounters at 20% must not warn")
	}
	if w := byResource[ResourceCharacters]; w.Level != LevelWarning {
		t.Errorf("characters level = %q, want warning", w.Level)
	}
	if w := byResource[ResourceParties]; w.Level != LevelCritical {
		t.Errorf("parties level = %q, want critical", w.Level)
	}
	if w := byResource[ResourceCustomMonsters]; !strings.Contains(w.Message, "reached your limit") {
		t.Errorf("at 100%% the message should say the limit is reached, got %q", w.Message)
	}
	if w := byResource[ResourceCharacters]; strings.Contains(w.Message, "reached") {
		t.Errorf("below 100%% the message should not say reached, got %q", w.Message)
	}
}

func TestWarningsForUnlimitedTierIsSilent(t *testing.T) {
	counters := Counters{Encounters: 100000, Characters: 100000, Parties: 100000, CustomMonsters: 100000}
	if warnings := WarningsFor(counters, LimitsFor(TierDungeonMaster)); len(warnings) != 0 {
		t.Fatalf("unbounded tier produced warnings: %+v", warnings)
	}
}

func TestWarningsForDeterministic(t *testing.T) {
	counters := Counters{Characters: 60}
	limits := LimitsFor(TierAdventurer)
	first := WarningsFor(counters, limits)
	second := WarningsFor(counters, limits)
	if len(first) != len(second) {
		t.Fatalf("repeated calls differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("warning %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLimitsForUnknownTierFallsBackToFree(t *testing.T) {
	if got := LimitsFor("lich"); got != LimitsFor(TierFree) {
		t.Fatalf("unknown tier limits = %+v, want free tier", got)
	}
	if KnownTier("lich") {
		t.Fatal("lich should not be a known tier")
	}
	if !KnownTier(TierDungeonMaster) {
		t.Fatal("dungeon_master should be a known tier")
	}
}

func TestReportCoversEveryResource(t *testing.T) {
	report := Report(Counters{}, LimitsFor(TierFree))
	if len(report) != 4 {
		t.Fatalf("report has %d entries, want 4", len(report))
	}
	seen := map[string]bool{}
	for _, u := range report {
		seen[u.Resource] = true
	}
	for _, r := range []string{ResourceEncounters, ResourceCharacters, ResourceParties, ResourceCustomMonsters} {
		if !seen[r] {
			t.Errorf("report missing resource %s", r)
		}
	}
}
