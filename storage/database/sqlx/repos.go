// Package sqlxrepos provides PostgreSQL-backed implementations of the
// core repository interfaces on top of sqlx.
package sqlxrepos

import (
	"strings"

	"github.com/learntocloud/ltc-backend/core"
)

// orderingClause renders an ORDER BY body from the requested orderings,
// keeping only whitelisted fields. Falls back to fallback when nothing
// valid was requested.
func orderingClause(ordering []core.DBOrdering, allowed map[string]bool, fallback string) string {
	var parts []string
	for _, ord := range ordering {
		if allowed[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
