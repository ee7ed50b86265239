// Package docstring extracts structured documentation from the docstring of a
// build rule or macro.
//
// A docstring is free prose interleaved with up to three kinds of sections,
// each opened by a heading that must appear alone on its line:
//
//	Args:      attribute name: description pairs
//	Examples:  free-form example text (also "Example:")
//	Outputs:   output name: description pairs
//
// A section runs until the first non-blank line indented no deeper than its
// heading. Everything outside a section is the rule's primary description.
package docstring

import (
	"strings"

	"github.com/lithammer/dedent"
)

const (
	ArgsHeading     = "Args:"
	ExamplesHeading = "Examples:"
	ExampleHeading  = "Example:"
	OutputsHeading  = "Outputs:"
)

// ExtractedDocs holds the documentation extracted from a single docstring.
type ExtractedDocs struct {
	Doc        string  `json:"doc" yaml:"doc"`
	AttrDocs   *Fields `json:"attr_docs" yaml:"attr_docs"`
	ExampleDoc string  `json:"example_doc" yaml:"example_doc"`
	OutputDocs *Fields `json:"output_docs" yaml:"output_docs"`
}

// Parser splits docstrings into ExtractedDocs. A Parser holds no mutable
// state and may be shared between goroutines.
type Parser struct {
	escape Escaper
}

// Option configures a Parser.
type Option func(*Parser)

// WithEscaper sets the transform applied to every finalized field
// description. A nil escaper leaves descriptions untouched.
func WithEscaper(e Escaper) Option {
	return func(p *Parser) {
		if e == nil {
			e = NoEscape
		}
		p.escape = e
	}
}

// NewParser returns a Parser that HTML-escapes field descriptions unless
// configured otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{escape: HTMLEscaper}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse extracts documentation from doc using the default parser.
func Parse(doc string) ExtractedDocs {
	return defaultParser.Parse(doc)
}

// Parse extracts the primary description, attribute docs, example text and
// output docs from doc. It never fails: content that does not fit a section
// is kept as prose, and malformed sections yield empty results.
func (p *Parser) Parse(doc string) ExtractedDocs {
	attrDocs := NewFields()
	outputDocs := NewFields()
	var docs, examples []string

	lines := strings.Split(doc, "\n")
	i := 0
	for i < len(lines) {
		switch strings.TrimSpace(lines[i]) {
		case ArgsHeading:
			i = p.parseFields(lines, i, attrDocs)
		case ExamplesHeading, ExampleHeading:
			var collected []string
			collected, i = collectExamples(lines, i)
			examples = append(examples, collected...)
		case OutputsHeading:
			i = p.parseFields(lines, i, outputDocs)
		default:
			docs = append(docs, lines[i])
			i++
		}
	}

	return ExtractedDocs{
		Doc:        strings.TrimSpace(strings.Join(docs, "\n")),
		AttrDocs:   attrDocs,
		ExampleDoc: strings.TrimSpace(dedent.Dedent(strings.Join(examples, "\n"))),
		OutputDocs: outputDocs,
	}
}
