package address

import "strings"

// fieldAliases maps each canonical field to the provider field names that
// have carried it over the years. Order matters: earlier names win. New
// provider quirks are additive here and nowhere else.
var fieldAliases = map[string][]string{
	"line1":    {"Line1", "Address1"},
	"line2":    {"Line2", "Address2"},
	"town":     {"PostTown", "City", "Town"},
	"county":   {"ProvinceName", "County", "Province"},
	"postcode": {"PostalCode", "PostCode", "Postcode"},
}

// Normalize maps a loosely-typed provider record onto the canonical address
// shape, coalescing historical field-name aliases and uppercasing the
// postcode.
func Normalize(raw map[string]interface{}) CanonicalAddress {
	pick := func(field string) string {
		for _, alias := range fieldAliases[field] {
			if v, ok := raw[alias]; ok {
				if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
		return ""
	}

	return CanonicalAddress{
		Line1:    pick("line1"),
		Line2:    pick("line2"),
		Town:     pick("town"),
		County:   pick("county"),
		Postcode: strings.ToUpper(pick("postcode")),
	}
}
