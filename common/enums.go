// Package common keeps types shared between processing packages and
// configuration so neither has to import the other.
package common

//go:generate go tool go-enum --marshal --names --nocase --file $GOFILE

// Level of client compatibility problems worth reporting. Numeric order
// matters: a table entry is reported when its support tier is greater or
// equal to requested level.
// ENUM(none, safe, poor, risky)
type WarnLevel int

// Enabled reports whether warnings should be collected at all.
func (w WarnLevel) Enabled() bool {
	return w != WarnLevelNone
}

// What processing subcommand should produce.
// ENUM(inline, text, check)
type Action int
