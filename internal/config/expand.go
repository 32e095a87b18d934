package config

import (
	"os"
	"regexp"
)

// placeholderPattern matches ${VAR} and ${VAR:default}. This is a
// stdlib-only helper rather than a templating dependency: the work is a
// single regexp replace, and pulling in a templating engine for two
// directive forms would be the heavier dependency (see DESIGN.md).
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:([^}]*))?\}`)

// expandPlaceholders resolves ${VAR} and ${VAR:default} references in raw
// TOML source text against the process environment, before the text is
// handed to the TOML decoder. An unset variable with no default expands to
// the empty string, matching shell ${VAR:-} semantics minus the dash.
func expandPlaceholders(src string) string {
	return placeholderPattern.ReplaceAllStringFunc(src, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name := groups[1]
		def := groups[3]

		if v, ok := os.LookupEnv(name); ok {
			return v
		}

		return def
	})
}
