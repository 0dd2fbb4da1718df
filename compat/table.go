// Package compat reports markup and style features with known poor support
// in popular mail clients.
package compat

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"premail/common"
)

//go:embed client_support.yaml
var clientSupport []byte

// Entry describes support of a single feature.
type Entry struct {
	Name          string           `yaml:"-"`
	Support       common.WarnLevel `yaml:"-"`
	UnsupportedIn []string         `yaml:"-"`
}

type rawEntry struct {
	Support       int      `yaml:"support"`
	UnsupportedIn []string `yaml:"unsupported_in"`
}

// Section keeps entries in the order they are listed in the table.
type Section []Entry

func (s *Section) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: mapping expected", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value

		var raw rawEntry
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("entry %q: %w", name, err)
		}
		tier := common.WarnLevel(raw.Support)
		if tier < common.WarnLevelSafe || tier > common.WarnLevelRisky {
			return fmt.Errorf("entry %q: support tier %d is out of range", name, raw.Support)
		}
		*s = append(*s, Entry{Name: name, Support: tier, UnsupportedIn: raw.UnsupportedIn})
	}
	return nil
}

// Table is client support table. Once loaded it is never modified and could
// be shared freely.
type Table struct {
	Properties Section `yaml:"css_properties"`
	Attributes Section `yaml:"attributes"`
	Elements   Section `yaml:"elements"`

	properties map[string]*Entry
}

// LoadTable reads support table in yaml format.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	t := &Table{}
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to decode client support table: %w", err)
	}

	t.properties = make(map[string]*Entry, len(t.Properties))
	for i := range t.Properties {
		t.properties[t.Properties[i].Name] = &t.Properties[i]
	}
	return t, nil
}

var defaultTable = sync.OnceValues(func() (*Table, error) {
	return LoadTable(bytes.NewReader(clientSupport))
})

// Default returns table built into the program, it is loaded on first use.
func Default() (*Table, error) {
	return defaultTable()
}
