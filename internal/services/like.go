package services

import "strings"

// likeEscape follows every LIKE built from user input. "!" is the escape
// character because MySQL treats a backslash specially inside literals.
const likeEscape = " ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// LikeContains returns a LIKE pattern matching s anywhere in a column, with
// the wildcards in s escaped. The query must use likeEscape.
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// likeExpr renders "col LIKE ? ESCAPE '!'".
func likeExpr(col string) string {
	return col + " LIKE ?" + likeEscape
}

// LikeExpr is likeExpr for queries built outside this package.
func LikeExpr(col string) string { return likeExpr(col) }
