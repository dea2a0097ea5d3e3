package llm

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// Local models known to ignore the prompt format or truncate badly at the
// default token cap.
var ProblematicModels = []string{
	"codellama:13b",
	"codestral",
	"qwen3:14b",
}

// ApprovedModels have been tried against every analysis kind.
var ApprovedModels = map[ProviderType][]string{
	ProviderOpenAI: {"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"},
	ProviderOllama: {"qwen2.5-coder", "qwen2.5-coder:14b", "qwen2.5-coder:7b", "codegemma:7b", "llama3.1:8b"},
	ProviderGemini: {"gemini-2.0-flash", "gemini-2.5-flash"},
}

func ValidateModel(provider ProviderType, model string) error {
	if provider == ProviderOllama && slices.Contains(ProblematicModels, model) {
		return fmt.Errorf("model '%s' has known issues and cannot be used", model)
	}
	return nil
}

// WarnIfUnapproved logs a warning and reports whether model is untested.
func WarnIfUnapproved(provider ProviderType, model string) bool {
	if slices.Contains(ApprovedModels[provider], model) {
		return false
	}
	logrus.Warnf("Model '%s' is not tested with %s. You may experience unexpected results.", model, provider)
	return true
}
