package dbutil

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// gendry emits MySQL-flavored SQL: `?` placeholders and `LIMIT offset, count`.
// Finalize rewrites both into Postgres form before execution.
var limitPattern = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

func Finalize(query string, args []interface{}) (string, []interface{}) {
	if loc := limitPattern.FindStringIndex(query); loc != nil {
		placeholders := strings.Count(query[:loc[0]], "?")
		if placeholders+1 < len(args) {
			// LIMIT offset, count -> LIMIT count OFFSET offset
			args[placeholders], args[placeholders+1] = args[placeholders+1], args[placeholders]
			query = limitPattern.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func IsConflict(err error) bool {
	if pgErr, ok := err.(*pq.Error); ok {
		return pgErr.Code == "23505"
	}
	return false
}
