// Package pricing holds the static collection time-slot rule table. A slot
// key is the machine-stable identifier; its label is the display text shown
// to customers. Keys and labels map one-to-one, and the key is the source of
// truth: labels are always derived, never stored independently.
package pricing

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FallbackKey is the rule applied to unrecognized slot keys.
const FallbackKey = "anytime"

// AfterHoursKey is the only slot priced by minimum charge instead of a flat
// surcharge.
const AfterHoursKey = "afterhours"

// Rule is one immutable entry of the slot table.
type Rule struct {
	Key            string `yaml:"key" json:"key"`
	Label          string `yaml:"label" json:"label"`
	SurchargePence int64  `yaml:"surchargePence" json:"surchargePence"`
	MinChargePence int64  `yaml:"minChargePence" json:"minChargePence"`
}

//go:embed slots.yaml
var slotsYAML []byte

var (
	rules   []Rule
	byKey   map[string]Rule
	byLabel map[string]string
)

func init() {
	if err := yaml.Unmarshal(slotsYAML, &rules); err != nil {
		panic(fmt.Sprintf("pricing: invalid slots.yaml: %v", err))
	}
	byKey = make(map[string]Rule, len(rules))
	byLabel = make(map[string]string, len(rules))
	for _, r := range rules {
		byKey[r.Key] = r
		byLabel[r.Label] = r.Key
	}
	if _, ok := byKey[FallbackKey]; !ok {
		panic("pricing: slots.yaml is missing the fallback rule")
	}
}

// Lookup returns the rule for a slot key. It is total: unknown keys fall
// back to the "any time" rule.
func Lookup(key string) Rule {
	if r, ok := byKey[key]; ok {
		return r
	}
	return byKey[FallbackKey]
}

// Known reports whether the key is an actual table entry (no fallback).
func Known(key string) bool {
	_, ok := byKey[key]
	return ok
}

// LabelFor derives the display label for a slot key via the table.
func LabelFor(key string) string {
	return Lookup(key).Label
}

// KeyForLabel reverse-maps a display label to its slot key. Older stored
// bookings carry only labels, so this is best-effort: an unrecognized label
// reports !ok rather than guessing.
func KeyForLabel(label string) (string, bool) {
	key, ok := byLabel[label]
	return key, ok
}

// AmountDuePence computes the card amount for a slot selection: the minimum
// charge for the after-hours slot, otherwise the flat surcharge (zero for
// most slots). It depends on nothing but the key.
func AmountDuePence(key string) int64 {
	rule := Lookup(key)
	if rule.Key == AfterHoursKey {
		return rule.MinChargePence
	}
	return rule.SurchargePence
}

// Rules returns the table entries in declaration order, for listing slot
// options to the wizard UI.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
