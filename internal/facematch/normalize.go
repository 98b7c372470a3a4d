package facematch

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeIdentity normalizes an identity for comparison (lowercase, no diacritics,
// spaces for dashes and underscores).
func NormalizeIdentity(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.TrimSpace(name)
}

// IdentityCollisions groups identities that differ only in case, diacritics or
// separators. Such duplicates usually mean one person was enrolled twice.
// Groups are keyed by the normalized form and only groups of two or more are returned.
func IdentityCollisions(identities []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range identities {
		key := NormalizeIdentity(id)
		groups[key] = append(groups[key], id)
	}
	for key, ids := range groups {
		if len(ids) < 2 {
			delete(groups, key)
			continue
		}
		sort.Strings(ids)
	}
	return groups
}
