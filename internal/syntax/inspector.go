package syntax

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var ErrUnsupportedLanguage = errors.New("no grammar for language")

// Report summarizes how a snippet parsed.
type Report struct {
	Language     string `json:"language"`
	Grammar      string `json:"grammar"`
	TopLevel     int    `json:"top_level"`
	ErrorCount   int    `json:"error_count"`
	FirstErrLine int    `json:"first_error_line,omitempty"`
}

func (r Report) HasErrors() bool {
	return r.ErrorCount > 0
}

type grammar struct {
	name     string
	language *sitter.Language
}

// Inspector parses snippets with tree-sitter. Grammars are shared; a parser
// is created per call so one Inspector can serve concurrent requests.
type Inspector struct {
	grammars map[string]grammar
}

var aliases = map[string]string{
	"golang": "go",
	"py":     "python",
	"ts":     "typescript",
	"js":     "javascript",
	"h":      "c",
}

func NewInspector() *Inspector {
	goLang := sitter.NewLanguage(tree_sitter_go.Language())
	tsLang := sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsxLang := sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())

	return &Inspector{
		grammars: map[string]grammar{
			"go":         {name: "Go", language: goLang},
			"python":     {name: "Python", language: sitter.NewLanguage(tree_sitter_python.Language())},
			"java":       {name: "Java", language: sitter.NewLanguage(tree_sitter_java.Language())},
			"typescript": {name: "TypeScript", language: tsLang},
			// TSX also accepts plain JavaScript and JSX.
			"javascript": {name: "TSX", language: tsxLang},
			"c":          {name: "C", language: sitter.NewLanguage(tree_sitter_c.Language())},
		},
	}
}

func normalize(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if alias, ok := aliases[l]; ok {
		return alias
	}
	return l
}

func (i *Inspector) Supports(language string) bool {
	_, ok := i.grammars[normalize(language)]
	return ok
}

func (i *Inspector) Inspect(language, code string) (Report, error) {
	g, ok := i.grammars[normalize(language)]
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(g.language); err != nil {
		return Report{}, fmt.Errorf("failed to set language for parser: %w", err)
	}

	src := []byte(code)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return Report{}, fmt.Errorf("failed to parse %s snippet: tree-sitter returned nil", g.name)
	}
	defer tree.Close()

	root := tree.RootNode()
	report := Report{
		Language: language,
		Grammar:  g.name,
		TopLevel: int(root.NamedChildCount()),
	}
	if root.HasError() {
		collectErrors(root, &report)
	}
	return report, nil
}

func collectErrors(node *sitter.Node, report *Report) {
	if node.IsError() || node.IsMissing() {
		report.ErrorCount++
		if report.FirstErrLine == 0 {
			report.FirstErrLine = int(node.StartPosition().Row) + 1
		}
		// Nested errors under an ERROR node are one problem.
		return
	}
	if !node.HasError() {
		return
	}
	for idx := uint(0); idx < node.ChildCount(); idx++ {
		child := node.Child(idx)
		if child != nil {
			collectErrors(child, report)
		}
	}
}
