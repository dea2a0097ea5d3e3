// Package highlight turns raw analysis text into marked-up text for display.
// Every function is pure with respect to its input and falls back to the raw
// text when highlighting fails.
package highlight

import (
	stdhtml "html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// Highlighter is the render-time transform applied to a session result.
type Highlighter func(text string) string

const styleName = "github"

var htmlFormatter = html.New(html.WithClasses(true), html.PreventSurroundingPre(true))

// Plain leaves text untouched.
func Plain(text string) string {
	return text
}

// HTML auto-detects the language of text and returns it as class-annotated
// spans, ready to be placed inside a <pre class="chroma">. Text is always
// HTML-escaped.
func HTML(text string) string {
	return htmlWith(detect(text), text)
}

// HTMLFor is HTML with the lexer for language, falling back to detection
// when chroma has no lexer by that name.
func HTMLFor(language string) Highlighter {
	return func(text string) string {
		lexer := lexers.Get(language)
		if lexer == nil {
			return HTML(text)
		}
		return htmlWith(chroma.Coalesce(lexer), text)
	}
}

func htmlWith(lexer chroma.Lexer, text string) string {
	if text == "" {
		return ""
	}
	out, err := format(htmlFormatter, lexer, text)
	if err != nil {
		return stdhtml.EscapeString(text)
	}
	return out
}

// Terminal is HTML's counterpart for 256-color terminals.
func Terminal(text string) string {
	if text == "" {
		return ""
	}
	out, err := format(formatters.Get("terminal256"), detect(text), text)
	if err != nil {
		return text
	}
	return out
}

// Markdown renders text as markdown for the terminal, wrapping at width.
func Markdown(width int) Highlighter {
	if width <= 0 {
		width = 80
	}
	return func(text string) string {
		if text == "" {
			return ""
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		out, err := renderer.Render(text)
		if err != nil {
			return text
		}
		return out
	}
}

// CSS returns the stylesheet matching the classes HTML emits.
func CSS() string {
	var sb strings.Builder
	if err := htmlFormatter.WriteCSS(&sb, styles.Get(styleName)); err != nil {
		return ""
	}
	return sb.String()
}

// ByName maps a render mode onto its highlighter. Unknown names get Plain.
func ByName(name string) Highlighter {
	switch strings.ToLower(name) {
	case "html":
		return HTML
	case "terminal", "ansi":
		return Terminal
	case "markdown", "md":
		return Markdown(80)
	default:
		return Plain
	}
}

func detect(text string) chroma.Lexer {
	lexer := lexers.Analyse(text)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func format(formatter chroma.Formatter, lexer chroma.Lexer, text string) (string, error) {
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, styles.Get(styleName), iterator); err != nil {
		return "", err
	}
	return sb.String(), nil
}
