package docstring

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// fieldPattern matches the first line of a field: an optional "-" bullet, a
// name made of word characters plus ` { } % and ., a colon, and the start of
// the description.
var fieldPattern = regexp.MustCompile(`^\s*-?\s*([` + "`" + `{}%.\pL\pN_]+):\s*(.*)`)

// Field is a single name/description pair.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc" yaml:"doc"`
}

// Fields maps field names to descriptions, keeping the order in which names
// first appeared. Setting an existing name replaces its description in place.
type Fields struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewFields returns an empty Fields.
func NewFields() *Fields {
	return &Fields{m: orderedmap.New[string, string]()}
}

// Set stores doc under name. The last write wins; the name keeps the
// position of its first write.
func (f *Fields) Set(name, doc string) {
	if f.m == nil {
		f.m = orderedmap.New[string, string]()
	}
	f.m.Set(name, doc)
}

// Get returns the description stored under name.
func (f *Fields) Get(name string) (string, bool) {
	if f == nil || f.m == nil {
		return "", false
	}
	return f.m.Get(name)
}

// Len returns the number of distinct names.
func (f *Fields) Len() int {
	if f == nil || f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Pairs returns the fields in insertion order.
func (f *Fields) Pairs() []Field {
	if f == nil || f.m == nil {
		return nil
	}
	out := make([]Field, 0, f.m.Len())
	for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{Name: pair.Key, Doc: pair.Value})
	}
	return out
}

// Keys returns the field names in insertion order.
func (f *Fields) Keys() []string {
	pairs := f.Pairs()
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Name
	}
	return keys
}

// Map returns an unordered copy of the fields.
func (f *Fields) Map() map[string]string {
	out := make(map[string]string, f.Len())
	for _, p := range f.Pairs() {
		out[p.Name] = p.Doc
	}
	return out
}

// MarshalJSON emits the fields as an object in insertion order. Descriptions
// are already escaped for their target, so no further HTML escaping is done.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, p := range f.Pairs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(p.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(p.Doc); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	f.m = m
	return nil
}

// MarshalYAML emits the fields as a mapping in insertion order.
func (f *Fields) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range f.Pairs() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Doc},
		)
	}
	return node, nil
}

// parseFields reads the name: description pairs of the section whose heading
// is lines[start] into fields, and returns the index of the first line after
// the section.
func (p *Parser) parseFields(lines []string, start int, fields *Fields) int {
	headingIndent := leadingWhitespace(lines[start])

	var name string
	var desc strings.Builder

	i := start + 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if endsSection(line, headingIndent) {
			break
		}

		// Users sometimes bullet their fields with "-"; it is accepted but
		// not part of the name.
		if m := fieldPattern.FindStringSubmatch(line); m != nil {
			if name != "" {
				fields.Set(name, p.escape(desc.String()))
			}
			name = m[1]
			desc.Reset()
			desc.WriteString(m[2])
			continue
		}

		if name != "" {
			desc.WriteString("\n")
			desc.WriteString(strings.TrimSpace(line))
		}
	}

	if name != "" {
		fields.Set(name, strings.TrimSpace(p.escape(desc.String())))
	}
	return i
}
