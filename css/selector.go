package css

import (
	"regexp"
	"slices"
	"strings"

	"github.com/andybalholm/cascadia"
)

var (
	unmergableRe = regexp.MustCompile(`(?i)(:(visited|active|hover|focus|after|before|selection|target|first-(line|letter)))|^@`)
	linkPseudoRe = regexp.MustCompile(`(?i):link(\s|$)`)
	elementRe    = regexp.MustCompile(`(^|\s)(\w+)`)

	// used when cascadia rejects selector
	idCountRe      = regexp.MustCompile(`#[\w-]+`)
	classCountRe   = regexp.MustCompile(`\.[\w-]+|\[[^\]]*\]|:[\w-]+`)
	elementCountRe = regexp.MustCompile(`(^|[\s>+~])[a-zA-Z][\w-]*`)

	// cascadia gives dynamic pseudo-classes zero weight as they never match
	dynamicPseudoRe = regexp.MustCompile(`(?i):(visited|hover|active|focus|target)\b`)

	mediaSplitRe = regexp.MustCompile(`[\s,]+`)
	mediaTypes   = []string{"screen", "handheld", "all"}
)

// NormalizeSelector strips :link pseudo-class and lower-cases element names
// leaving class and id names intact.
func NormalizeSelector(sel string) string {
	sel = linkPseudoRe.ReplaceAllString(sel, "$1")
	sel = elementRe.ReplaceAllStringFunc(sel, strings.ToLower)
	return strings.TrimSpace(sel)
}

// IsUnmergable reports whether rules with this selector depend on element
// state (or are @-rules) and therefore could not be expressed inline.
func IsUnmergable(sel string) bool {
	return unmergableRe.MatchString(sel)
}

// Specificity flattens selector specificity (a, b, c) into a*100 + b*10 + c.
func Specificity(sel string) int {
	var s [3]int
	if compiled, err := cascadia.ParseWithPseudoElement(sel); err == nil {
		s = compiled.Specificity()
		s[1] += len(dynamicPseudoRe.FindAllString(sel, -1))
	} else {
		s[0] = len(idCountRe.FindAllString(sel, -1))
		s[1] = len(classCountRe.FindAllString(sel, -1))
		s[2] = len(elementCountRe.FindAllString(sel, -1))
	}
	return s[0]*100 + s[1]*10 + s[2]
}

// MediaMatches reports whether media list (as found in link media attribute)
// includes screen, handheld or all. Absent media matches everything.
func MediaMatches(media string) bool {
	media = strings.TrimSpace(media)
	if media == "" {
		return true
	}
	for _, t := range mediaSplitRe.Split(strings.ToLower(media), -1) {
		if slices.Contains(mediaTypes, t) {
			return true
		}
	}
	return false
}

// MediaTypesOnly reports whether @media query consists solely of screen,
// handheld or all media types, so its rules apply unconditionally.
func MediaTypesOnly(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	for _, t := range mediaSplitRe.Split(strings.ToLower(query), -1) {
		if t != "" && !slices.Contains(mediaTypes, t) {
			return false
		}
	}
	return true
}
