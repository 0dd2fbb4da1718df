package premail

import (
	"premail/utils/debug"
)

// DebugString returns readable dump of the processing state: bases, collected
// rules, recorded problems and warnings (when already checked). It exists
// solely for troubleshooting.
func (p *Premailer) DebugString() string {
	tw := debug.NewTreeWriter()

	tw.Field(0, "Document base", p.doc.Base().String())
	tw.Field(0, "Link base", p.linkBase.String())
	tw.Field(0, "Title", p.Title())

	tw.Line(0, "Rules: %d", len(p.rules))
	for i, r := range p.rules {
		if r.IsAtRule() {
			tw.Line(1, "[%d] %s { %s }", i, r.Selector, r.Body)
			continue
		}
		tw.Line(1, "[%d] %s specificity[%d]", i, r.Selector, r.Specificity)
		for _, d := range r.Declarations {
			tw.Line(2, "%s", d)
		}
	}

	errs := p.diags.Errors()
	problems := make([]string, 0, len(errs))
	for _, err := range errs {
		problems = append(problems, err.Error())
	}
	tw.List(0, "Diagnostics", problems)

	if p.checked {
		warnings := make([]string, 0, len(p.warnings))
		for _, w := range p.warnings {
			warnings = append(warnings, w.String())
		}
		tw.List(0, "Warnings", warnings)
	}
	return tw.String()
}
