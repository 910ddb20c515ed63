package db

import "strings"

// IsMissingTable reports whether the error indicates a query against a table
// that does not exist yet. SQLite and Postgres phrase this differently.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "does not exist")
}
