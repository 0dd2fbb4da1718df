//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const reservedNameChars = `<>":/\|?*` + string(os.PathListSeparator)

// Explorer refuses names ending with dot or space.
func trimNameEdges(name string) string {
	return strings.TrimRight(strings.TrimSpace(name), ". ")
}

// EnableColorOutput checks if colorized log output is possible and turns on
// VT100 sequence processing of Windows console.
func EnableColorOutput(stream *os.File) bool {
	if !colorAllowed(stream) {
		return false
	}

	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()
	if v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber"); err != nil || v < 10 {
		return false
	}

	const enableVirtualTerminalProcessing uint32 = 0x4

	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|enableVirtualTerminalProcessing) == nil
}
