package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/agusespa/devassist/internal/types"
)

// templateData is what every analysis template is executed with.
type templateData struct {
	Language string
	Code     string
}

var templates = template.Must(LoadPromptTemplates())

// LoadPromptTemplates parses one named template per analysis kind.
func LoadPromptTemplates() (*template.Template, error) {
	tmpl := template.New("prompts")

	for _, kind := range types.AllKinds {
		_, err := tmpl.New(kind.String()).Parse(templateText(kind))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", kind, err)
		}
	}

	return tmpl, nil
}

func templateText(kind types.AnalysisKind) string {
	switch kind {
	case types.KindReview:
		return reviewPromptTemplate
	case types.KindExplain:
		return explainPromptTemplate
	case types.KindOptimize:
		return optimizePromptTemplate
	case types.KindRefactor:
		return refactorPromptTemplate
	default:
		return ""
	}
}

// Build renders the instruction for kind followed by the verbatim code.
func Build(kind types.AnalysisKind, language, code string) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unsupported analysis type %q", types.ErrInvalidRequest, kind.String())
	}

	var result strings.Builder
	err := templates.ExecuteTemplate(&result, kind.String(), templateData{Language: language, Code: code})
	if err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", kind, err)
	}

	return result.String(), nil
}

func BuildForRequest(req types.AnalysisRequest) (string, error) {
	kind, err := types.ParseAnalysisKind(req.Type)
	if err != nil {
		return "", err
	}
	return Build(kind, req.Language, req.Code)
}

const reviewPromptTemplate = `You are a senior software engineer. Perform a comprehensive code review of the following {{.Language}} code.
Identify potential bugs, security vulnerabilities, style problems and deviations from best practices.
For each finding, explain why it matters and suggest a concrete fix.

{{.Code}}`

const explainPromptTemplate = `You are a patient programming mentor. Give a beginner-friendly explanation of the following {{.Language}} code.
Walk through what it does step by step, define any jargon you use and point out the key language concepts it relies on.

{{.Code}}`

const optimizePromptTemplate = `You are a performance engineer. Suggest a performance optimization plan for the following {{.Language}} code.
Point out costly operations, analyze time and memory complexity and propose faster alternatives with short code examples.

{{.Code}}`

const refactorPromptTemplate = `You are a clean code specialist. Refactor the following {{.Language}} code to improve readability and maintainability without changing its behavior.
Return the refactored code first, then briefly list the changes you made.

{{.Code}}`
