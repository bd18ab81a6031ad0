package logger

import "regexp"

const mask = "*****"

var redactions = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`("(?:password|apiKey|token)"\s*:\s*)"[^"]*"`), `${1}"` + mask + `"`},
	{regexp.MustCompile(`(?i)("authorization"\s*:\s*)"[^"]*"`), `${1}"` + mask + `"`},
	{regexp.MustCompile(`(?i)(authorization:[ \t]*(?:bearer|basic|digest|token)[ \t]+)[^\s"]+`), `${1}` + mask},
	{regexp.MustCompile(`(?im)(authorization:[ \t]*)[^\s"]+[ \t]*$`), `${1}` + mask},
	{regexp.MustCompile(`\b(\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?)\d{4}\b`), `${1}****`},
}

// Redact masks secrets in a log payload: password, apiKey and token JSON
// fields, Authorization values of any scheme, and the last four digits of
// card numbers.
func Redact(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}
