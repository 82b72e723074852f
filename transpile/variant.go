package transpile

import (
	"regexp"

	"github.com/evanw/esbuild/pkg/api"
)

// Variant is the declared source dialect of a snippet.
type Variant string

// Recognized snippet variants.
const (
	// VariantTypedScript is typed script with no markup.
	VariantTypedScript Variant = "typed-script"

	// VariantTypedScriptMarkup is typed script with embedded UI markup.
	VariantTypedScriptMarkup Variant = "typed-script-markup"

	// VariantPlainScript is untyped script.
	VariantPlainScript Variant = "plain-script"

	// VariantPlainScriptMarkup is untyped script with embedded UI markup.
	VariantPlainScriptMarkup Variant = "plain-script-markup"

	// VariantProseMarkup is prose markup; it bypasses transpilation and
	// the sandbox entirely.
	VariantProseMarkup Variant = "prose-markup"
)

// Valid reports whether v is one of the five recognized variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantTypedScript, VariantTypedScriptMarkup,
		VariantPlainScript, VariantPlainScriptMarkup, VariantProseMarkup:
		return true
	}
	return false
}

// MarkupCapable reports whether the variant may carry embedded UI markup.
func (v Variant) MarkupCapable() bool {
	return v == VariantTypedScriptMarkup || v == VariantPlainScriptMarkup
}

// loader maps the variant to its esbuild loader.
func (v Variant) loader() api.Loader {
	switch v {
	case VariantTypedScript:
		return api.LoaderTS
	case VariantTypedScriptMarkup:
		return api.LoaderTSX
	case VariantPlainScriptMarkup:
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

var (
	markupOpenRe    = regexp.MustCompile(`<[A-Za-z][A-Za-z0-9.]*[\s/>]`)
	defaultExportRe = regexp.MustCompile(`\bexport\s+default\b`)
)

// ContainsMarkup reports whether code appears to contain embedded UI
// markup syntax. Textual heuristic only; the transpiler has the final say
// when it parses the code.
func ContainsMarkup(code string) bool {
	return markupOpenRe.MatchString(code)
}

// HasDefaultExport reports whether code exports a top-level default
// binding, the convention for exporting a renderable component.
func HasDefaultExport(code string) bool {
	return defaultExportRe.MatchString(code)
}
