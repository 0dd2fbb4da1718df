package css

import (
	"cmp"
	"slices"
	"strings"
)

// RuleSet collects unmergable rules keyed by selector in order of first
// appearance.
type RuleSet struct {
	order   []string
	entries map[string]*ruleSetEntry
}

type ruleSetEntry struct {
	decls  []Declaration
	bodies []string
}

func NewRuleSet() *RuleSet {
	return &RuleSet{entries: make(map[string]*ruleSetEntry)}
}

// Add appends rule to the set, declarations of duplicate selectors are
// concatenated. Conflicts are resolved when set is serialized.
func (rs *RuleSet) Add(r Rule) {
	e, ok := rs.entries[r.Selector]
	if !ok {
		e = &ruleSetEntry{}
		rs.entries[r.Selector] = e
		rs.order = append(rs.order, r.Selector)
	}
	e.decls = append(e.decls, r.Declarations...)
	if r.Body != "" {
		e.bodies = append(e.bodies, r.Body)
	}
}

func (rs *RuleSet) Len() int {
	return len(rs.order)
}

// Selectors returns selectors in order of first appearance.
func (rs *RuleSet) Selectors() []string {
	return slices.Clone(rs.order)
}

// String serializes set as "selector { declarations }" lines.
func (rs *RuleSet) String() string {
	var sb strings.Builder
	for _, sel := range rs.order {
		e := rs.entries[sel]
		parts := make([]string, 0, 1+len(e.bodies))
		if len(e.decls) > 0 {
			parts = append(parts, Serialize(Fold([]Block{{Declarations: e.decls}})))
		}
		parts = append(parts, e.bodies...)
		sb.WriteString(sel)
		sb.WriteString(" { ")
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString(" }\n")
	}
	return sb.String()
}

// Partition normalizes selectors and splits rules into mergable ones, kept in
// source order, and unmergable ones collected into a RuleSet.
func Partition(rules []Rule) ([]Rule, *RuleSet) {
	unmergable := NewRuleSet()
	mergable := make([]Rule, 0, len(rules))
	for _, r := range rules {
		r.Selector = NormalizeSelector(r.Selector)
		if r.Selector == "" {
			continue
		}
		if IsUnmergable(r.Selector) {
			unmergable.Add(r)
			continue
		}
		mergable = append(mergable, r)
	}
	return mergable, unmergable
}

// Fold merges declaration blocks into a single declaration list. Blocks are
// applied in ascending specificity, source order breaking ties, so the last
// applied value of a property wins unless an earlier one was !important and
// the later one is not. Overridden properties move to the position of the
// winning declaration.
func Fold(blocks []Block) []Declaration {
	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b Block) int {
		if c := cmp.Compare(a.Specificity, b.Specificity); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})

	var out []Declaration
	for _, b := range sorted {
		for _, d := range b.Declarations {
			i := slices.IndexFunc(out, func(o Declaration) bool {
				return strings.EqualFold(o.Property, d.Property)
			})
			if i >= 0 {
				if out[i].Important && !d.Important {
					continue
				}
				out = slices.Delete(out, i, i+1)
			}
			out = append(out, d)
		}
	}
	return out
}
