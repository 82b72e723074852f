package modhost

import (
	"regexp"
	"strings"
)

// DefaultBaseURL is the remote module host used when none is configured.
const DefaultBaseURL = "https://esm.sh"

// Specifier positions recognized by the rewriter. This is a textual
// rewrite, not a full module parse: multi-line declarations are handled,
// but exotic forms (computed dynamic imports, import assertions) pass
// through untouched.
var (
	// import x from 'spec' / export { y } from 'spec'
	fromClauseRe = regexp.MustCompile(`(\b(?:import|export)\b[^'"` + "`" + `;]*?\bfrom\b\s*)(['"])([^'"]+)(['"])`)

	// import 'spec' (side-effect import, no bindings)
	bareImportRe = regexp.MustCompile(`(\bimport\s*)(['"])([^'"]+)(['"])`)

	// import('spec') with a string literal argument
	dynamicImportRe = regexp.MustCompile(`(\bimport\s*\(\s*)(['"])([^'"]+)(['"])`)

	// schemeRe matches specifiers that already carry a URL scheme.
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Rewriter maps bare module specifiers to remote module host URLs.
// The zero value rewrites against DefaultBaseURL.
type Rewriter struct {
	// BaseURL is the module host prefix, without a trailing slash.
	BaseURL string
}

// Rewrite scans code for import and re-export declarations whose specifier
// is a bare package name and rewrites the specifier to a module host URL.
// Relative, absolute, and scheme-prefixed specifiers are left untouched,
// which also makes Rewrite idempotent.
func (r Rewriter) Rewrite(code string) string {
	base := r.base()
	rewrite := func(match string, re *regexp.Regexp) string {
		parts := re.FindStringSubmatch(match)
		spec := parts[3]
		if !IsBare(spec) {
			return match
		}
		return parts[1] + parts[2] + base + "/" + spec + parts[4]
	}

	code = fromClauseRe.ReplaceAllStringFunc(code, func(m string) string {
		return rewrite(m, fromClauseRe)
	})
	code = dynamicImportRe.ReplaceAllStringFunc(code, func(m string) string {
		return rewrite(m, dynamicImportRe)
	})
	code = bareImportRe.ReplaceAllStringFunc(code, func(m string) string {
		return rewrite(m, bareImportRe)
	})
	return code
}

// Resolve maps a single specifier to a loadable URL. Bare names are joined
// to the module host; everything else is returned as-is.
func (r Rewriter) Resolve(spec string) string {
	if !IsBare(spec) {
		return spec
	}
	return r.base() + "/" + spec
}

func (r Rewriter) base() string {
	if r.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(r.BaseURL, "/")
}

// IsBare reports whether spec is a bare package name: not relative, not
// absolute, and not already carrying a URL scheme.
func IsBare(spec string) bool {
	if spec == "" {
		return false
	}
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return false
	}
	return !schemeRe.MatchString(spec)
}
