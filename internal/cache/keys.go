package cache

import "strings"

// keySeparator joins the category discriminator and request parameters.
// It must never appear inside a normalized parameter, otherwise two
// distinct logical requests could collide.
const keySeparator = "::"

// BuildKey derives the deterministic cache key for a request: the
// category discriminator joined with every parameter that affects the
// result. Same logical request, same key, always.
func BuildKey(category string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, category)
	parts = append(parts, params...)
	return strings.Join(parts, keySeparator)
}
