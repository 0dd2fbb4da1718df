package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/multierr"
)

// ParseDeclarations parses declaration list as found in style attributes.
// Malformed declarations are skipped, every one of them is reported in
// returned error while the rest of the list is still processed.
func ParseDeclarations(text string) ([]Declaration, error) {
	var (
		decls []Declaration
		errs  error
	)

	parser := css.NewParser(parse.NewInputString(text), true)
	lastErrOffset := -1

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				// end of input
				return decls, errs
			}
			errs = multierr.Append(errs, parser.Err())
			// parser must make progress after recovering
			off := parser.Offset()
			if off == lastErrOffset {
				return decls, errs
			}
			lastErrOffset = off

		case css.DeclarationGrammar:
			if d, ok := declarationFromTokens(string(data), parser.Values()); ok {
				decls = append(decls, d)
			}

		case css.CustomPropertyGrammar:
			var val []byte
			for _, t := range parser.Values() {
				val = append(val, t.Data...)
			}
			if v := strings.TrimSpace(string(val)); v != "" {
				decls = append(decls, Declaration{Property: string(data), Value: v})
			}
		}
	}
}

// declarationFromTokens builds raw value string out of value tokens,
// whitespace runs become a single space.
func declarationFromTokens(prop string, tokens []css.Token) (Declaration, bool) {
	prop = strings.ToLower(strings.TrimSpace(prop))

	// trailing semicolon and whitespace are not part of the value
	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if last.TokenType != css.WhitespaceToken && last.TokenType != css.SemicolonToken {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	important := false
	if n := len(tokens); n >= 2 &&
		tokens[n-1].TokenType == css.IdentToken && strings.EqualFold(string(tokens[n-1].Data), "important") {
		i := n - 2
		for i >= 0 && tokens[i].TokenType == css.WhitespaceToken {
			i--
		}
		if i >= 0 && tokens[i].TokenType == css.DelimToken && bytes.Equal(tokens[i].Data, []byte("!")) {
			important, tokens = true, tokens[:i]
		}
	}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))

	if prop == "" || raw == "" {
		return Declaration{}, false
	}
	return Declaration{Property: prop, Value: raw, Important: important}, true
}
