package bzl

import (
	"strings"

	"github.com/lithammer/dedent"
	sitter "github.com/smacker/go-tree-sitter"
)

// module carries the source of the file being extracted and the top-level
// dictionaries that attrs = NAME or outputs = NAME may refer to.
type module struct {
	src   []byte
	dicts map[string]*sitter.Node
}

// moduleDocstring returns the string statement that opens the file.
func (m *module) moduleDocstring(root *sitter.Node) (string, bool) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return "", false
		}
		return m.stringLiteral(stmt.NamedChild(0))
	}
	return "", false
}

// bodyDocstring returns the docstring of a function definition.
func (m *module) bodyDocstring(def *sitter.Node) (string, bool) {
	body := def.ChildByFieldName("body")
	if body == nil {
		return "", false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return "", false
		}
		return m.stringLiteral(stmt.NamedChild(0))
	}
	return "", false
}

// stringLiteral returns the value of a string or implicitly concatenated
// string node.
func (m *module) stringLiteral(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "string":
		return stringValue(n.Content(m.src)), true
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part := n.NamedChild(i)
			if part.Type() == "string" {
				b.WriteString(stringValue(part.Content(m.src)))
			}
		}
		return b.String(), true
	}
	return "", false
}

// keywordArguments indexes the keyword arguments of a call by name.
func (m *module) keywordArguments(call *sitter.Node) map[string]*sitter.Node {
	kwargs := make(map[string]*sitter.Node)
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return kwargs
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "keyword_argument" {
			continue
		}
		name := arg.ChildByFieldName("name")
		value := arg.ChildByFieldName("value")
		if name != nil && value != nil {
			kwargs[name.Content(m.src)] = value
		}
	}
	return kwargs
}

// dictionary resolves n to a dictionary literal, following one level of
// reference to a top-level assignment.
func (m *module) dictionary(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "dictionary":
		return n
	case "identifier":
		return m.dicts[n.Content(m.src)]
	}
	return nil
}

// pairs calls fn for every key: value pair of a dictionary whose key is a
// string literal.
func (m *module) pairs(n *sitter.Node, fn func(key string, value *sitter.Node)) {
	dict := m.dictionary(n)
	if dict == nil {
		return
	}
	for i := 0; i < int(dict.NamedChildCount()); i++ {
		pair := dict.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		if k, ok := m.stringLiteral(key); ok {
			fn(k, value)
		}
	}
}

// attributes reads an attrs = {"name": attr.kind(...)} dictionary.
func (m *module) attributes(n *sitter.Node) []Attribute {
	var attrs []Attribute
	m.pairs(n, func(key string, value *sitter.Node) {
		a := Attribute{Name: key, Type: typeUnknown}
		if value.Type() == "call" {
			if fn := value.ChildByFieldName("function"); fn != nil && fn.Type() == "attribute" {
				obj := fn.ChildByFieldName("object")
				kind := fn.ChildByFieldName("attribute")
				if obj != nil && kind != nil && obj.Content(m.src) == "attr" {
					if t, ok := attrTypes[kind.Content(m.src)]; ok {
						a.Type = t
					}
				}
			}
			kwargs := m.keywordArguments(value)
			if v, ok := kwargs["mandatory"]; ok {
				a.Mandatory = v.Type() == "true"
			}
			if v, ok := kwargs["default"]; ok {
				a.Default = v.Content(m.src)
			}
		}
		attrs = append(attrs, a)
	})
	return attrs
}

// outputs reads an outputs = {"name": "template"} dictionary.
func (m *module) outputs(n *sitter.Node) []Output {
	var outs []Output
	m.pairs(n, func(key string, value *sitter.Node) {
		if tmpl, ok := m.stringLiteral(value); ok {
			outs = append(outs, Output{Name: key, Template: tmpl})
		}
	})
	return outs
}

// parameters reads the parameters of a macro. *args and **kwargs are not
// documented.
func (m *module) parameters(def *sitter.Node) []Attribute {
	params := def.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var attrs []Attribute
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		var a Attribute
		switch p.Type() {
		case "identifier":
			a = Attribute{Name: p.Content(m.src), Mandatory: true}
		case "typed_parameter":
			if id := p.NamedChild(0); id != nil && id.Type() == "identifier" {
				a = Attribute{Name: id.Content(m.src), Mandatory: true}
			}
		case "default_parameter", "typed_default_parameter":
			name := p.ChildByFieldName("name")
			value := p.ChildByFieldName("value")
			if name == nil {
				continue
			}
			a = Attribute{Name: name.Content(m.src)}
			if value != nil {
				a.Default = value.Content(m.src)
			}
		default:
			continue
		}
		if a.Name == "" {
			continue
		}
		a.Type = typeUnknown
		if a.Name == "name" {
			a.Type = typeName
		}
		attrs = append(attrs, a)
	}
	return attrs
}

// cleanDoc strips the first line of a docstring and removes the common
// indentation of the lines after it, which carry the indentation of the
// surrounding source.
func cleanDoc(doc string) string {
	first, rest, found := strings.Cut(strings.TrimSpace(doc), "\n")
	if !found {
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(strings.TrimSpace(first) + "\n" + dedent.Dedent(rest))
}

// stringValue decodes the source text of a string literal, including any
// prefix and triple quotes.
func stringValue(lit string) string {
	raw := false
	for len(lit) > 0 && strings.ContainsRune("rRbBuUfF", rune(lit[0])) {
		if lit[0] == 'r' || lit[0] == 'R' {
			raw = true
		}
		lit = lit[1:]
	}

	switch {
	case len(lit) >= 6 && (strings.HasPrefix(lit, `"""`) || strings.HasPrefix(lit, `'''`)):
		lit = lit[3 : len(lit)-3]
	case len(lit) >= 2:
		lit = lit[1 : len(lit)-1]
	default:
		return ""
	}

	if raw || !strings.Contains(lit, `\`) {
		return lit
	}
	return unescape(lit)
}

// unescape resolves the backslash escapes that appear in docstrings. Unknown
// escapes are kept as written.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\n':
			// line continuation
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
