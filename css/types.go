package css

import (
	"strings"
)

// InlineSpecificity is assigned to style attributes present in the source
// document, they win against any selector derived rule.
const InlineSpecificity = 1000

// Declaration is a single property/value pair. Value never carries the
// !important marker, it is kept in Important.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Rule is one selector with its declarations in source order. Grouped
// selectors are split into separate rules sharing declarations. At-rules
// which cannot be flattened keep their block text verbatim in Body and use
// "@name prelude" as Selector.
type Rule struct {
	Selector     string
	Declarations []Declaration
	Body         string
	Specificity  int
}

// IsAtRule reports whether rule came from an @-rule block.
func (r Rule) IsAtRule() bool {
	return strings.HasPrefix(r.Selector, "@")
}

// Block is a group of declarations targeted at a single element, tagged with
// the specificity of the selector it came from and its position in the
// aggregated rule stream.
type Block struct {
	Specificity  int
	Order        int
	Declarations []Declaration
}

// Stylesheet is the result of parsing a single chunk of CSS text.
type Stylesheet struct {
	Rules []Rule
	// Imports lists @import targets (unresolved) for which media matched.
	Imports []string
}

// Serialize writes declarations in "prop: value; prop: value;" form.
func Serialize(decls []Declaration) string {
	var sb strings.Builder
	for i, d := range decls {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.String())
		sb.WriteByte(';')
	}
	return sb.String()
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
