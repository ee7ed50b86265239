// Package bzl extracts rule and macro documentation from Starlark (.bzl)
// files. Files are read statically with the tree-sitter Python grammar, which
// accepts Starlark syntax; nothing is evaluated.
package bzl

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jcdickinson/ruledoc/internal/docstring"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Extractor turns .bzl sources into RuleSets.
type Extractor struct {
	parser *docstring.Parser
}

// NewExtractor returns an Extractor that parses docstrings with p. A nil p
// uses the default docstring parser.
func NewExtractor(p *docstring.Parser) *Extractor {
	if p == nil {
		p = docstring.NewParser()
	}
	return &Extractor{parser: p}
}

// ExtractFile reads and extracts the .bzl file at path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.Extract(ctx, path, src)
}

// Extract parses src and collects its public rules and macros. Syntax errors
// do not fail extraction; the statements tree-sitter cannot recover are
// skipped.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) (*RuleSet, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	m := &module{src: src, dicts: make(map[string]*sitter.Node)}
	rs := &RuleSet{File: path, Rules: []Rule{}}

	root := tree.RootNode()
	if doc, ok := m.moduleDocstring(root); ok {
		title, desc, _ := strings.Cut(doc, "\n")
		rs.Title = strings.TrimSpace(title)
		rs.Description = strings.TrimSpace(desc)
	}

	// A rule's docstring is the string statement directly after its
	// assignment; pending holds the rule waiting for one.
	var pending *Rule
	flush := func() {
		if pending != nil {
			rs.Rules = append(rs.Rules, *pending)
			pending = nil
		}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "comment":
			continue
		case "function_definition":
			flush()
			if macro, ok := e.macro(m, stmt); ok {
				rs.Rules = append(rs.Rules, macro)
			}
			continue
		case "expression_statement":
			// handled below
		default:
			flush()
			continue
		}

		expr := stmt.NamedChild(0)
		if expr == nil {
			flush()
			continue
		}

		if s, ok := m.stringLiteral(expr); ok && pending != nil {
			e.applyDocstring(pending, s)
			flush()
			continue
		}
		flush()

		if expr.Type() != "assignment" {
			continue
		}
		left := expr.ChildByFieldName("left")
		right := expr.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" {
			continue
		}
		name := left.Content(src)
		if right.Type() == "dictionary" {
			m.dicts[name] = right
		}
		if strings.HasPrefix(name, "_") {
			continue
		}
		if r, ok := e.rule(m, name, right); ok {
			pending = &r
		}
	}
	flush()

	sort.SliceStable(rs.Rules, func(i, j int) bool {
		return rs.Rules[i].Name < rs.Rules[j].Name
	})
	return rs, nil
}

// rule builds a Rule from the right-hand side of NAME = rule(...).
func (e *Extractor) rule(m *module, name string, call *sitter.Node) (Rule, bool) {
	if call.Type() != "call" {
		return Rule{}, false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return Rule{}, false
	}
	var kind string
	switch fn.Content(m.src) {
	case "rule":
		kind = KindRule
	case "repository_rule":
		kind = KindRepositoryRule
	default:
		return Rule{}, false
	}

	r := Rule{Name: name, Kind: kind}
	attrs := []Attribute{{Name: "name", Type: typeName, Mandatory: true}}

	kwargs := m.keywordArguments(call)
	if v, ok := kwargs["attrs"]; ok {
		for _, a := range m.attributes(v) {
			if a.Name == "name" || strings.HasPrefix(a.Name, "_") {
				continue
			}
			attrs = append(attrs, a)
		}
	}
	if v, ok := kwargs["outputs"]; ok {
		r.Outputs = m.outputs(v)
	}
	sortAttributes(attrs)
	r.Attributes = attrs

	if v, ok := kwargs["doc"]; ok {
		if s, ok := m.stringLiteral(v); ok {
			e.applyDocstring(&r, s)
		}
	}
	return r, true
}

// macro builds a Rule from a public, documented function definition.
func (e *Extractor) macro(m *module, def *sitter.Node) (Rule, bool) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return Rule{}, false
	}
	name := nameNode.Content(m.src)
	if strings.HasPrefix(name, "_") {
		return Rule{}, false
	}
	doc, ok := m.bodyDocstring(def)
	if !ok {
		return Rule{}, false
	}

	r := Rule{Name: name, Kind: KindMacro, Attributes: m.parameters(def)}
	e.applyDocstring(&r, doc)
	return r, true
}

// applyDocstring parses doc and attaches the result to r.
func (e *Extractor) applyDocstring(r *Rule, doc string) {
	extracted := e.parser.Parse(cleanDoc(doc))
	r.Doc = extracted.Doc
	r.ExampleDoc = extracted.ExampleDoc

	for i := range r.Attributes {
		if d, ok := extracted.AttrDocs.Get(r.Attributes[i].Name); ok {
			r.Attributes[i].Doc = d
		}
	}
	for i := range r.Outputs {
		out := &r.Outputs[i]
		if d, ok := extracted.OutputDocs.Get(out.Name); ok {
			out.Doc = d
		} else if d, ok := extracted.OutputDocs.Get(backtickTemplate(out.Template)); ok {
			out.Doc = d
		}
	}
}

// backtickTemplate rewrites the %{attr} placeholders of an output template as
// `attr`, the form used when documenting outputs.
func backtickTemplate(template string) string {
	var b strings.Builder
	for {
		start := strings.Index(template, "%{")
		if start < 0 {
			break
		}
		end := strings.Index(template[start:], "}")
		if end < 0 {
			break
		}
		b.WriteString(template[:start])
		b.WriteString("`" + template[start+2:start+end] + "`")
		template = template[start+end+1:]
	}
	b.WriteString(template)
	return b.String()
}

// sortAttributes orders attributes with name first, then mandatory
// attributes, then alphabetically.
func sortAttributes(attrs []Attribute) {
	sort.SliceStable(attrs, func(i, j int) bool {
		a, b := attrs[i], attrs[j]
		if (a.Name == "name") != (b.Name == "name") {
			return a.Name == "name"
		}
		if a.Mandatory != b.Mandatory {
			return a.Mandatory
		}
		return a.Name < b.Name
	})
}
