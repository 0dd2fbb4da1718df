//go:build !windows

package config

import (
	"os"
	"strings"
)

const reservedNameChars = string(os.PathSeparator) + string(os.PathListSeparator)

func trimNameEdges(name string) string {
	return strings.TrimSpace(name)
}

// EnableColorOutput checks if colorized log output is possible.
func EnableColorOutput(stream *os.File) bool {
	return colorAllowed(stream)
}
