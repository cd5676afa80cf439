package formatter

import "strings"

// cleanser strips characters Loki rejects even after correct JSON
// escaping: double quotes are removed, CRLF collapses to LF, and
// backslashes become forward slashes.
var cleanser = strings.NewReplacer(`"`, "", "\r\n", "\n", `\`, "/")

// Cleanse sanitizes a raw string before it is placed into a label
// value or a line-object field value. Standard JSON escaping still
// happens later in the encoder; this runs in addition to it.
func Cleanse(s string) string {
	return cleanser.Replace(s)
}
