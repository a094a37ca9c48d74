// Package lang tags paste content with a syntax language, either by
// sanitizing an explicit user choice against the supported set or by scoring
// the content against weighted per-language patterns.
package lang

import (
	"regexp"
	"strings"

	"github.com/viralburst/pastebin/pkg/domain"
)

var supported = map[string]bool{
	"text":       true,
	"python":     true,
	"javascript": true,
	"typescript": true,
	"go":         true,
	"java":       true,
	"c":          true,
	"cpp":        true,
	"rust":       true,
	"ruby":       true,
	"php":        true,
	"html":       true,
	"css":        true,
	"sql":        true,
	"json":       true,
	"yaml":       true,
	"shell":      true,
	"markdown":   true,
}

var aliases = map[string]string{
	"py":     "python",
	"js":     "javascript",
	"ts":     "typescript",
	"golang": "go",
	"c++":    "cpp",
	"rb":     "ruby",
	"bash":   "shell",
	"sh":     "shell",
	"zsh":    "shell",
	"yml":    "yaml",
	"md":     "markdown",
	"plain":  "text",
}

// Sanitize maps a user-supplied tag onto the supported set; anything
// unrecognized falls back to the generic text tag.
func Sanitize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if alias, ok := aliases[tag]; ok {
		return alias
	}
	if supported[tag] {
		return tag
	}
	return domain.FallbackLanguage
}

type pattern struct {
	re     *regexp.Regexp
	weight float64
}

var signatures = map[string][]pattern{
	"python": {
		{regexp.MustCompile(`\bdef\s+\w+\s*\(`), 3},
		{regexp.MustCompile(`\bprint\s*\(`), 2},
		{regexp.MustCompile(`\bimport\s+\w+`), 2},
		{regexp.MustCompile(`\belif\b|\bself\b|\b__init__\b`), 3},
		{regexp.MustCompile(`(?m)#.*$`), 0.5},
	},
	"javascript": {
		{regexp.MustCompile(`\bconst\s+\w+\s*=`), 2},
		{regexp.MustCompile(`\bfunction\s+\w+\s*\(`), 2},
		{regexp.MustCompile(`\bconsole\.log\s*\(`), 3},
		{regexp.MustCompile(`=>`), 1.5},
		{regexp.MustCompile(`\brequire\s*\(|\bmodule\.exports\b`), 2},
	},
	"typescript": {
		{regexp.MustCompile(`:\s*(?:string|number|boolean)\b`), 3},
		{regexp.MustCompile(`\binterface\s+\w+\s*\{`), 3},
		{regexp.MustCompile(`\bexport\s+(?:type|interface)\b`), 3},
	},
	"go": {
		{regexp.MustCompile(`\bfunc\s+\w+\s*\(`), 3},
		{regexp.MustCompile(`\bpackage\s+\w+`), 3},
		{regexp.MustCompile(`:=`), 2},
		{regexp.MustCompile(`\bfmt\.\w+\(`), 2},
	},
	"java": {
		{regexp.MustCompile(`\bpublic\s+(?:static\s+)?(?:void|class)\b`), 3},
		{regexp.MustCompile(`\bSystem\.out\.print`), 3},
		{regexp.MustCompile(`\bprivate\s+\w+\s+\w+;`), 2},
	},
	"c": {
		{regexp.MustCompile(`#include\s*<\w+\.h>`), 3},
		{regexp.MustCompile(`\bprintf\s*\(`), 2},
		{regexp.MustCompile(`\bint\s+main\s*\(`), 2},
	},
	"cpp": {
		{regexp.MustCompile(`#include\s*<iostream>`), 3},
		{regexp.MustCompile(`\bstd::\w+`), 3},
		{regexp.MustCompile(`\bcout\s*<<`), 2},
	},
	"rust": {
		{regexp.MustCompile(`\bfn\s+\w+\s*\(`), 3},
		{regexp.MustCompile(`\blet\s+mut\b`), 3},
		{regexp.MustCompile(`\bprintln!\s*\(`), 3},
	},
	"ruby": {
		{regexp.MustCompile(`\bdef\s+\w+\s*$`), 2},
		{regexp.MustCompile(`\bputs\s`), 2},
		{regexp.MustCompile(`\bend\s*$`), 1.5},
	},
	"php": {
		{regexp.MustCompile(`<\?php`), 4},
		{regexp.MustCompile(`\$\w+\s*=`), 1.5},
		{regexp.MustCompile(`\becho\s`), 1.5},
	},
	"html": {
		{regexp.MustCompile(`(?i)<!DOCTYPE\s+html>`), 4},
		{regexp.MustCompile(`(?i)</?(?:div|span|html|body|head|p|a)\b`), 1.5},
	},
	"css": {
		{regexp.MustCompile(`[.#]?[\w-]+\s*\{[^}]*:[^}]*\}`), 2},
		{regexp.MustCompile(`\b(?:margin|padding|color|font-size)\s*:`), 2},
	},
	"sql": {
		{regexp.MustCompile(`(?i)\bSELECT\b.+\bFROM\b`), 3},
		{regexp.MustCompile(`(?i)\b(?:INSERT\s+INTO|UPDATE|DELETE\s+FROM|CREATE\s+TABLE)\b`), 3},
	},
	"json": {
		{regexp.MustCompile(`^\s*\{[\s\S]*\}\s*$`), 2},
		{regexp.MustCompile(`"\w+"\s*:\s*(?:"|\d|\{|\[|true|false|null)`), 1.5},
	},
	"yaml": {
		{regexp.MustCompile(`(?m)^\w[\w-]*:\s+\S`), 1.5},
		{regexp.MustCompile(`(?m)^\s+-\s+\w`), 1},
	},
	"shell": {
		{regexp.MustCompile(`^#!/bin/(?:ba)?sh`), 4},
		{regexp.MustCompile(`(?m)^\s*(?:echo|cd|export|sudo|grep|curl)\s`), 1.5},
		{regexp.MustCompile(`\$\{?\w+\}?`), 0.5},
	},
	"markdown": {
		{regexp.MustCompile(`(?m)^#{1,6}\s+\S`), 2},
		{regexp.MustCompile("(?m)^```"), 2},
		{regexp.MustCompile(`\[.+\]\(.+\)`), 1.5},
	},
}

// Detect scores content against every signature table, normalizing by length
// so short snippets aren't drowned out. Highest score wins; ties and
// no-matches fall back to the generic text tag.
func Detect(content string) string {
	if strings.TrimSpace(content) == "" {
		return domain.FallbackLanguage
	}
	norm := float64(len(content))
	if norm < 1 {
		norm = 1
	}
	best := domain.FallbackLanguage
	bestScore := 0.0
	tied := false
	for language, patterns := range signatures {
		score := 0.0
		for _, p := range patterns {
			if n := len(p.re.FindAllStringIndex(content, -1)); n > 0 {
				score += p.weight * float64(n)
			}
		}
		score /= norm
		switch {
		case score > bestScore:
			bestScore = score
			best = language
			tied = false
		case score > 0 && score == bestScore:
			tied = true
		}
	}
	if tied {
		return domain.FallbackLanguage
	}
	return best
}
