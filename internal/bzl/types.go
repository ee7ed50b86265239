package bzl

// Rule kinds.
const (
	KindRule           = "rule"
	KindRepositoryRule = "repository_rule"
	KindMacro          = "macro"
)

// RuleSet is the documentation extracted from one .bzl file.
type RuleSet struct {
	File        string `json:"file" yaml:"file"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule `json:"rules" yaml:"rules"`
}

// Rule is a public rule, repository rule or macro.
type Rule struct {
	Name       string      `json:"name" yaml:"name"`
	Kind       string      `json:"kind" yaml:"kind"`
	Doc        string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	ExampleDoc string      `json:"example_doc,omitempty" yaml:"example_doc,omitempty"`
	Attributes []Attribute `json:"attributes" yaml:"attributes"`
	Outputs    []Output    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Attribute is a rule attribute or macro parameter.
type Attribute struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Mandatory bool   `json:"mandatory" yaml:"mandatory"`
	Default   string `json:"default,omitempty" yaml:"default,omitempty"`
	Doc       string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Output is an implicit output declared through rule(outputs = {...}).
type Output struct {
	Name     string `json:"name" yaml:"name"`
	Template string `json:"template" yaml:"template"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// attrTypes maps attr module functions to readable type names.
var attrTypes = map[string]string{
	"bool":                    "Boolean",
	"int":                     "Integer",
	"int_list":                "List of integers",
	"label":                   "Label",
	"label_list":              "List of labels",
	"label_keyed_string_dict": "Dictionary: Label -> String",
	"string_keyed_label_dict": "Dictionary: String -> Label",
	"license":                 "List of strings",
	"output":                  "Label",
	"output_list":             "List of labels",
	"string":                  "String",
	"string_dict":             "Dictionary: String -> String",
	"string_list":             "List of strings",
	"string_list_dict":        "Dictionary: String -> List of strings",
}

const (
	typeName    = "Name"
	typeUnknown = "Unknown"
)

// Signature renders the call signature used in generated headings, e.g.
// "java_library(name, srcs, deps)".
func (r Rule) Signature() string {
	s := r.Name + "("
	for i, a := range r.Attributes {
		if i > 0 {
			s += ", "
		}
		s += a.Name
	}
	return s + ")"
}
