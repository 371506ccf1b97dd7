package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards (and the backslash escape character
// itself) in a plain substring so it can be embedded in a LIKE pattern with
// ESCAPE '\'. Implementations wrap the result in %...% themselves.
func EscapeLike(needle string) string {
	return likeEscaper.Replace(needle)
}
