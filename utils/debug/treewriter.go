// Package debug produces readable dumps of processing state stored in debug
// reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Field writes "label: value" with value quoted, empty values are marked
// explicitly.
func (tw *TreeWriter) Field(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	if value == "" {
		tw.w.WriteString("<empty>")
	} else {
		tw.w.WriteString(strconv.Quote(value))
	}
	tw.w.WriteByte('\n')
}

// List writes label with number of items followed by items one level
// deeper. Nothing but the label is written for empty list.
func (tw *TreeWriter) List(depth int, label string, items []string) {
	tw.Line(depth, "%s: %d", label, len(items))
	for i, item := range items {
		tw.Line(depth+1, "[%d] %s", i, item)
	}
}
