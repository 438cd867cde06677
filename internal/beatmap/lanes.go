package beatmap

import (
	"math"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rosacry/beatsight/internal/classifier"
)

// componentAliases normalizes classifier label variants onto the canonical
// taxonomy, built once at init rather than looked up dynamically per call
// (spec.md §9's redesign of the source material's dynamic alias lookup).
var componentAliases = map[string]string{
	"kick":         "kick",
	"bassdrum":     "kick",
	"bass_drum":    "kick",
	"snare":        "snare",
	"snaredrum":    "snare",
	"hihat_closed": "hihat_closed",
	"hihat-closed": "hihat_closed",
	"closed_hihat": "hihat_closed",
	"hihat_open":   "hihat_open",
	"open_hihat":   "hihat_open",
	"hihat_pedal":  "hihat_pedal",
	"tom_high":     "tom_high",
	"hightom":      "tom_high",
	"tom_mid":      "tom_mid",
	"midtom":       "tom_mid",
	"tom_low":      "tom_low",
	"lowtom":       "tom_low",
	"ride":         "ride",
	"ride_bell":    "ride",
	"crash":        "crash",
	"crash_1":      "crash",
	"crash_2":      "crash",
	"china":        "china",
	"splash":       "splash",
	"cowbell":      "cowbell",
	"tambourine":   "tambourine",
	"shaker":       "shaker",
	"clap":         "clap",
	"unknown":      "unknown",
}

// componentLaneMap assigns the base visual lane per component family, per
// spec.md §4.F.2.
var componentLaneMap = map[string]uint8{
	"kick":         3,
	"snare":        1,
	"hihat_closed": 5,
	"hihat_open":   5,
	"hihat_pedal":  0,
	"tom_high":     2,
	"tom_mid":      4,
	"tom_low":      4,
	"ride":         6,
	"crash":        6,
	"china":        6,
	"splash":       6,
	"cowbell":      0,
	"tambourine":   0,
	"shaker":       0,
	"clap":         0,
}

const defaultLane uint8 = 4

var cymbalFamily = mapset.NewSet("ride", "crash", "china", "splash")
var tomFamily = mapset.NewSet("tom_high", "tom_mid", "tom_low")

var normalizer = cases.Lower(language.Und)

// NormalizeComponent canonicalizes a raw classifier label: lowercase,
// underscore-joined, then resolved through componentAliases. Unknown labels
// pass through unchanged so callers can still surface a useful diagnostic.
func NormalizeComponent(label string) string {
	key := normalizer.String(strings.ReplaceAll(strings.TrimSpace(label), "-", "_"))
	if canonical, ok := componentAliases[key]; ok {
		return canonical
	}
	return key
}

// LaneStats is the explicit return value replacing the source material's
// function-attribute side channel for lane-switch telemetry (spec.md §9).
type LaneStats struct {
	SwitchCounts map[string]int
}

// AssignLanes assigns a base lane per component, then applies cymbal and tom
// temporal alternation, per spec.md §4.F.2. hits must already be sorted by
// time. Returns one lane per hit, in input order, and the lane-switch
// telemetry.
func AssignLanes(hits []classifier.ClassifiedHit) ([]uint8, LaneStats) {
	lanes := make([]uint8, len(hits))
	stats := LaneStats{SwitchCounts: map[string]int{"cymbal": 0, "tom": 0}}

	var lastCymbalTime float64
	var lastCymbalLane uint8
	haveLastCymbal := false

	var lastTomTime float64
	var lastTomLane uint8
	haveLastTom := false

	for i, h := range hits {
		component := NormalizeComponent(h.Component)
		lane, ok := componentLaneMap[component]
		if !ok {
			lane = defaultLane
		}

		switch {
		case cymbalFamily.Contains(component):
			if haveLastCymbal && math.Abs(h.TimeSeconds-lastCymbalTime)*1000 <= 450 {
				if lastCymbalLane == 6 {
					lane = 0
				} else {
					lane = 6
				}
			} else if lane != 0 && lane != 6 {
				lane = 6
			}

			// Count every lane change, including the out-of-window
			// re-anchor to lane 6, not just in-window alternation.
			if haveLastCymbal && lane != lastCymbalLane {
				stats.SwitchCounts["cymbal"]++
			}

			lastCymbalTime = h.TimeSeconds
			lastCymbalLane = lane
			haveLastCymbal = true

		case tomFamily.Contains(component):
			if haveLastTom && math.Abs(h.TimeSeconds-lastTomTime)*1000 <= 350 {
				if lastTomLane == 4 {
					lane = 2
				} else {
					lane = 4
				}
			} else if lane != 2 && lane != 4 {
				lane = 4
			}

			if haveLastTom && lane != lastTomLane {
				stats.SwitchCounts["tom"]++
			}

			lastTomTime = h.TimeSeconds
			lastTomLane = lane
			haveLastTom = true
		}

		lanes[i] = lane
	}
	return lanes, stats
}
