// Package render turns extracted rulesets into Markdown or HTML pages using
// templates embedded in the binary.
package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"path"
	"strings"
	texttemplate "text/template"
	"unicode"

	"github.com/jcdickinson/ruledoc/internal/bzl"
	"github.com/jcdickinson/ruledoc/internal/markdown"
)

//go:embed templates/*.tmpl
var templates embed.FS

//go:embed templates/main.css
var css []byte

// CSSFile is the stylesheet every HTML page links, relative to the output
// root.
const CSSFile = "main.css"

// CSS returns the stylesheet written next to HTML output.
func CSS() []byte {
	return css
}

// NavEntry is one ruleset in the HTML navigation.
type NavEntry struct {
	Title string
	File  string
	Rules []string
}

// Nav builds the navigation for rulesets. files holds the output filename of
// each ruleset, by index. Rulesets without rules are left out.
func Nav(rulesets []*bzl.RuleSet, files []string) []NavEntry {
	var entries []NavEntry
	for i, rs := range rulesets {
		if rs == nil || len(rs.Rules) == 0 {
			continue
		}
		title := rs.Title
		if title == "" {
			title = path.Base(rs.File)
		}
		e := NavEntry{Title: title, File: files[i]}
		for _, r := range rs.Rules {
			e.Rules = append(e.Rules, r.Name)
		}
		entries = append(entries, e)
	}
	return entries
}

// page is the data handed to the templates.
type page struct {
	RuleSet *bzl.RuleSet
	Root    string
	Nav     []NavEntry
}

// Renderer renders rulesets. Links to input .bzl files found in docstrings
// are rewritten to the documentation generated for them.
type Renderer struct {
	links map[string]string
	text  *texttemplate.Template
	html  *htmltemplate.Template
}

// New parses the embedded templates. links maps input .bzl paths to output
// filenames relative to the output root; it may be nil.
func New(links map[string]string) (*Renderer, error) {
	r := &Renderer{links: links}

	text, err := texttemplate.New("").Funcs(texttemplate.FuncMap{
		"anchor":  anchor,
		"rewrite": r.rewrite,
		"cell": func(root, s string) string {
			return tableCell(r.rewrite(root, s))
		},
	}).ParseFS(templates, "templates/markdown.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing markdown template: %w", err)
	}

	html, err := htmltemplate.New("").Funcs(htmltemplate.FuncMap{
		"anchor": anchor,
		"markdown": func(root, s string) htmltemplate.HTML {
			return htmltemplate.HTML(markdown.ToHTML(r.rewrite(root, s)))
		},
	}).ParseFS(templates, "templates/html.tmpl", "templates/nav.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing html template: %w", err)
	}

	r.text = text
	r.html = html
	return r, nil
}

// Markdown renders rs as a Markdown page.
func (r *Renderer) Markdown(rs *bzl.RuleSet) (string, error) {
	var buf bytes.Buffer
	if err := r.text.ExecuteTemplate(&buf, "markdown", page{RuleSet: rs}); err != nil {
		return "", fmt.Errorf("rendering markdown for %s: %w", rs.File, err)
	}
	return buf.String(), nil
}

// HTML renders rs as a standalone HTML page that will be written to file,
// a path relative to the output root.
func (r *Renderer) HTML(rs *bzl.RuleSet, file string, nav []NavEntry) (string, error) {
	var buf bytes.Buffer
	p := page{RuleSet: rs, Root: rootPrefix(file), Nav: nav}
	if err := r.html.ExecuteTemplate(&buf, "html", p); err != nil {
		return "", fmt.Errorf("rendering html for %s: %w", rs.File, err)
	}
	return buf.String(), nil
}

func (r *Renderer) rewrite(root, s string) string {
	if len(r.links) == 0 || s == "" {
		return s
	}
	links := make(map[string]string, len(r.links))
	for src, dest := range r.links {
		links[src] = root + dest
	}
	return markdown.RewriteLinks(s, links)
}

// rootPrefix returns the relative path from the directory of file back to
// the output root, e.g. "../" for "java/rules.html".
func rootPrefix(file string) string {
	dir := path.Dir(path.Clean(strings.ReplaceAll(file, "\\", "/")))
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1)
}

// anchor turns a rule name into a fragment identifier.
func anchor(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return unicode.ToLower(r)
		}
		return '-'
	}, name)
}

// tableCell fits a description into a single Markdown table cell. Paragraph
// breaks become <br><br>; other line breaks become spaces.
func tableCell(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
	paras := strings.Split(s, "\n\n")
	for i, p := range paras {
		paras[i] = strings.Join(strings.Fields(p), " ")
	}
	return strings.Join(paras, "<br><br>")
}
