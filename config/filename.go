package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName removes characters not allowed in file names on this
// platform. Leading dots are removed so results never hide themselves.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if sym == 0 || strings.ContainsRune(reservedNameChars, sym) {
			return -1
		}
		return sym
	}, in)
	out = trimNameEdges(strings.TrimLeft(out, "."))
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// colorAllowed reports whether stream is terminal and user did not opt out
// of colors with NO_COLOR.
func colorAllowed(stream *os.File) bool {
	if v, ok := os.LookupEnv("NO_COLOR"); ok && v != "" {
		return false
	}
	return term.IsTerminal(int(stream.Fd()))
}
