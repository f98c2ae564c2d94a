package utils

import "regexp"

// Bot messages use chat markup: *bold* and _italic_. WhatsApp renders that
// natively; the CLI channel translates it to ANSI escapes when stdout is a
// terminal.
const (
	ansiBold   = "\033[1m"
	ansiItalic = "\033[3m"
	ansiReset  = "\033[0m"
)

var (
	boldRe   = regexp.MustCompile(`\*([^*]+)\*`)
	italicRe = regexp.MustCompile(`_([^_]+)_`)
)

// RenderANSI converts chat markup to ANSI styling. When tty is false the
// markup is stripped instead so piped output stays clean.
func RenderANSI(text string, tty bool) string {
	if !tty {
		out := boldRe.ReplaceAllString(text, "$1")
		return italicRe.ReplaceAllString(out, "$1")
	}
	out := boldRe.ReplaceAllString(text, ansiBold+"$1"+ansiReset)
	return italicRe.ReplaceAllString(out, ansiItalic+"$1"+ansiReset)
}
