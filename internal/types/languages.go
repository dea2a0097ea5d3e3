package types

import (
	"slices"
	"strings"
)

const DefaultLanguage = "typescript"

// SupportedLanguages feeds the language selector. The server does not
// validate requests against it.
var SupportedLanguages = []string{
	"typescript", "javascript", "python", "java",
	"cpp", "rust", "go", "ruby", "swift",
}

type Language struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func DisplayName(id string) string {
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

func Languages() []Language {
	langs := make([]Language, 0, len(SupportedLanguages))
	for _, id := range SupportedLanguages {
		langs = append(langs, Language{ID: id, Name: DisplayName(id)})
	}
	return langs
}

func IsSupportedLanguage(id string) bool {
	return slices.Contains(SupportedLanguages, id)
}
