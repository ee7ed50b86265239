package docstring

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_RuleDocOnly(t *testing.T) {
	t.Parallel()

	got := Parse("Rule documentation only docstring.")
	assert.Equal(t, "Rule documentation only docstring.", got.Doc)
	assert.Equal(t, 0, got.AttrDocs.Len())
	assert.Equal(t, "", got.ExampleDoc)
	assert.Equal(t, 0, got.OutputDocs.Len())
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	got := Parse("")
	assert.Equal(t, "", got.Doc)
	assert.Equal(t, 0, got.AttrDocs.Len())
	assert.Equal(t, "", got.ExampleDoc)
	assert.Equal(t, 0, got.OutputDocs.Len())
}

func TestParse_RuleAndAttributeDoc(t *testing.T) {
	t.Parallel()

	docstring := "Rule and attribute documentation.\n" +
		"\n" +
		"Args:\n" +
		"  name: A unique name for this rule.\n" +
		"  visibility: The visibility of this rule.\n"

	got := Parse(docstring)
	assert.Equal(t, "Rule and attribute documentation.", got.Doc)
	assert.Equal(t, []string{"name", "visibility"}, got.AttrDocs.Keys())
	assert.Equal(t, map[string]string{
		"name":       "A unique name for this rule.",
		"visibility": "The visibility of this rule.",
	}, got.AttrDocs.Map())
	assert.Equal(t, "", got.ExampleDoc)
}

func TestParse_MultiLineDoc(t *testing.T) {
	t.Parallel()

	docstring := "Multi-line rule and attribute documentation.\n" +
		"\n" +
		"Rule doc continued here.\n" +
		"\n" +
		"Args:\n" +
		"  name: A unique name for this rule.\n" +
		"\n" +
		"    Documentation for name continued here.\n" +
		"  visibility: The visibility of this rule.\n" +
		"\n" +
		"    Documentation for visibility continued here.\n"

	got := Parse(docstring)
	assert.Equal(t, "Multi-line rule and attribute documentation.\n\nRule doc continued here.", got.Doc)
	assert.Equal(t, map[string]string{
		"name":       "A unique name for this rule.\n\nDocumentation for name continued here.",
		"visibility": "The visibility of this rule.\n\nDocumentation for visibility continued here.",
	}, got.AttrDocs.Map())
}

func TestParse_ContinuationAtFieldDepth(t *testing.T) {
	t.Parallel()

	got := Parse("Args:\n  name: A.\n\n  more.")
	doc, ok := got.AttrDocs.Get("name")
	require.True(t, ok)
	assert.Equal(t, "A.\n\nmore.", doc)
}

func TestParse_UnknownHeadingIsProse(t *testing.T) {
	t.Parallel()

	docstring := "Rule and attribute documentation.\n" +
		"\n" +
		"Foo:\n" +
		"  name: A unique name for this rule.\n" +
		"  visibility: The visibility of this rule.\n"

	got := Parse(docstring)
	assert.Equal(t, strings.TrimSpace(docstring), got.Doc)
	assert.Equal(t, 0, got.AttrDocs.Len())
	assert.Equal(t, "", got.ExampleDoc)
	assert.Equal(t, 0, got.OutputDocs.Len())
}

func TestParse_HeadingMustMatchExactly(t *testing.T) {
	t.Parallel()

	for _, heading := range []string{"Args", "args:", "Args: name", "Outputs :", "Arguments:"} {
		t.Run(heading, func(t *testing.T) {
			docstring := "Doc.\n" + heading + "\n  name: A name."
			got := Parse(docstring)
			assert.Equal(t, docstring, got.Doc)
			assert.Equal(t, 0, got.AttrDocs.Len())
			assert.Equal(t, 0, got.OutputDocs.Len())
		})
	}
}

const wantExample = "An example of how to use this rule:\n" +
	"\n" +
	"    example_rule()\n" +
	"\n" +
	"Note about this example."

func TestParse_ExampleBeforeArgs(t *testing.T) {
	t.Parallel()

	docstring := "Documentation with example\n" +
		"\n" +
		"Examples:\n" +
		"  An example of how to use this rule:\n" +
		"\n" +
		"      example_rule()\n" +
		"\n" +
		"  Note about this example.\n" +
		"\n" +
		"Args:\n" +
		"  name: A unique name for this rule.\n" +
		"  visibility: The visibility of this rule.\n"

	got := Parse(docstring)
	assert.Equal(t, "Documentation with example", got.Doc)
	assert.Equal(t, wantExample, got.ExampleDoc)
	assert.Equal(t, map[string]string{
		"name":       "A unique name for this rule.",
		"visibility": "The visibility of this rule.",
	}, got.AttrDocs.Map())
}

func TestParse_ExampleAfterArgs(t *testing.T) {
	t.Parallel()

	docstring := "Documentation with example\n" +
		"\n" +
		"Args:\n" +
		"  name: A unique name for this rule.\n" +
		"  visibility: The visibility of this rule.\n" +
		"\n" +
		"Examples:\n" +
		"  An example of how to use this rule:\n" +
		"\n" +
		"      example_rule()\n" +
		"\n" +
		"  Note about this example.\n"

	got := Parse(docstring)
	assert.Equal(t, "Documentation with example", got.Doc)
	assert.Equal(t, wantExample, got.ExampleDoc)
	assert.Equal(t, map[string]string{
		"name":       "A unique name for this rule.",
		"visibility": "The visibility of this rule.",
	}, got.AttrDocs.Map())
}

func TestParse_SingularExampleHeading(t *testing.T) {
	t.Parallel()

	got := Parse("Doc.\n\nExample:\n    foo(name = \"x\")\n")
	assert.Equal(t, "Doc.", got.Doc)
	assert.Equal(t, `foo(name = "x")`, got.ExampleDoc)
}

func TestParse_ProseAfterSection(t *testing.T) {
	t.Parallel()

	docstring := "Intro.\n" +
		"Args:\n" +
		"  name: A name.\n" +
		"Trailing prose.\n"

	got := Parse(docstring)
	assert.Equal(t, "Intro.\nTrailing prose.", got.Doc)
	assert.Equal(t, map[string]string{"name": "A name."}, got.AttrDocs.Map())
}

func TestParse_IndentedHeading(t *testing.T) {
	t.Parallel()

	docstring := "Rule doc.\n" +
		"\n" +
		"    Args:\n" +
		"      srcs: Source files.\n" +
		"      deps: Dependencies.\n" +
		"    Closing remark.\n" +
		"Dedented further.\n"

	got := Parse(docstring)
	assert.Equal(t, "Rule doc.\n\n    Closing remark.\nDedented further.", got.Doc)
	assert.Equal(t, []string{"srcs", "deps"}, got.AttrDocs.Keys())
}

func TestParse_SectionEndsOnFurtherDedent(t *testing.T) {
	t.Parallel()

	got := Parse("    Args:\n      a: First.\nback at zero\n      b: Second.")
	assert.Equal(t, []string{"a"}, got.AttrDocs.Keys())
	assert.Equal(t, "back at zero\n      b: Second.", got.Doc)
}

func TestParse_Outputs(t *testing.T) {
	t.Parallel()

	docstring := "Builds a Java library.\n" +
		"\n" +
		"Outputs:\n" +
		"  `name`.jar: A Java archive.\n" +
		"  lib%{name}_src.jar: Source archive.\n" +
		"  {name}.deploy.jar: Deployable jar.\n"

	got := Parse(docstring)
	assert.Equal(t, "Builds a Java library.", got.Doc)
	assert.Equal(t, []string{"`name`.jar", "lib%{name}_src.jar", "{name}.deploy.jar"}, got.OutputDocs.Keys())
	doc, ok := got.OutputDocs.Get("`name`.jar")
	require.True(t, ok)
	assert.Equal(t, "A Java archive.", doc)
	assert.Equal(t, 0, got.AttrDocs.Len())
}

func TestParse_AllSections(t *testing.T) {
	t.Parallel()

	docstring := "Summary line.\n" +
		"\n" +
		"Args:\n" +
		"  srcs: Sources.\n" +
		"Outputs:\n" +
		"  out: The output.\n" +
		"Examples:\n" +
		"  my_rule(name = \"a\")\n" +
		"More prose."

	got := Parse(docstring)
	assert.Equal(t, "Summary line.\n\nMore prose.", got.Doc)
	assert.Equal(t, map[string]string{"srcs": "Sources."}, got.AttrDocs.Map())
	assert.Equal(t, map[string]string{"out": "The output."}, got.OutputDocs.Map())
	assert.Equal(t, `my_rule(name = "a")`, got.ExampleDoc)
}

func TestParse_BulletedFields(t *testing.T) {
	t.Parallel()

	got := Parse("Args:\n  - name: A name.\n  -visibility: Who can see it.")
	assert.Equal(t, map[string]string{
		"name":       "A name.",
		"visibility": "Who can see it.",
	}, got.AttrDocs.Map())
}

func TestParse_ProseBeforeFirstFieldIsDiscarded(t *testing.T) {
	t.Parallel()

	got := Parse("Doc.\nArgs:\n  The following are accepted\n  name: A name.")
	assert.Equal(t, "Doc.", got.Doc)
	assert.Equal(t, map[string]string{"name": "A name."}, got.AttrDocs.Map())
}

func TestParse_HeadingWithoutFields(t *testing.T) {
	t.Parallel()

	got := Parse("Doc.\nArgs:\n  nothing to see here\n  (really)\nEnd.")
	assert.Equal(t, "Doc.\nEnd.", got.Doc)
	assert.Equal(t, 0, got.AttrDocs.Len())
}

func TestParse_DuplicateFieldLastWins(t *testing.T) {
	t.Parallel()

	got := Parse("Args:\n  a: First.\n  b: Middle.\n  a: Second.")
	assert.Equal(t, []string{"a", "b"}, got.AttrDocs.Keys())
	doc, _ := got.AttrDocs.Get("a")
	assert.Equal(t, "Second.", doc)
}

func TestParse_EscapesFieldDescriptions(t *testing.T) {
	t.Parallel()

	got := Parse("Doc with <b>markup</b>.\nArgs:\n  deps: List of <label> & \"targets\".")
	doc, _ := got.AttrDocs.Get("deps")
	assert.Equal(t, "List of &lt;label&gt; &amp; &#34;targets&#34;.", doc)
	assert.Equal(t, "Doc with <b>markup</b>.", got.Doc, "prose is not escaped")
}

func TestParse_NoEscape(t *testing.T) {
	t.Parallel()

	p := NewParser(WithEscaper(NoEscape))
	got := p.Parse("Args:\n  deps: List of <label>.")
	doc, _ := got.AttrDocs.Get("deps")
	assert.Equal(t, "List of <label>.", doc)
}

func TestParse_CustomEscaperAppliesToEveryField(t *testing.T) {
	t.Parallel()

	p := NewParser(WithEscaper(strings.ToUpper))
	got := p.Parse("Args:\n  a: one\n  b: two")
	assert.Equal(t, map[string]string{"a": "ONE", "b": "TWO"}, got.AttrDocs.Map())
}

func TestParse_EmptyInitialDescription(t *testing.T) {
	t.Parallel()

	got := Parse("Args:\n  name:\n    Described on the next line.")
	doc, _ := got.AttrDocs.Get("name")
	assert.Equal(t, "Described on the next line.", doc)
}

func TestParse_NoHeadingsIsStrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"  leading and trailing  \n\n",
		"line one\n  line two: with colon\nline three",
		"\tTabbed\n\n\n",
		"Args: inline is not a heading",
	}
	for _, in := range inputs {
		got := Parse(in)
		assert.Equal(t, strings.TrimSpace(in), got.Doc)
		assert.Equal(t, 0, got.AttrDocs.Len())
		assert.Equal(t, "", got.ExampleDoc)
		assert.Equal(t, 0, got.OutputDocs.Len())

		again := Parse(got.Doc)
		assert.Equal(t, got.Doc, again.Doc)
	}
}

func TestExtractedDocs_JSONKeepsOrder(t *testing.T) {
	t.Parallel()

	got := Parse("Doc.\nArgs:\n  zeta: Z.\n  alpha: A.")
	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc":"Doc.","attr_docs":{"zeta":"Z.","alpha":"A."},"example_doc":"","output_docs":{}}`, string(data))
	assert.Less(t, strings.Index(string(data), "zeta"), strings.Index(string(data), "alpha"))

	var back ExtractedDocs
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"zeta", "alpha"}, back.AttrDocs.Keys())
}

func TestExtractedDocs_YAMLKeepsOrder(t *testing.T) {
	t.Parallel()

	got := Parse("Doc.\nOutputs:\n  zeta: Z.\n  alpha: A.")
	data, err := yaml.Marshal(got)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "doc: Doc.")
	assert.Less(t, strings.Index(out, "zeta: Z."), strings.Index(out, "alpha: A."))
}
