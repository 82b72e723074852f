// Package transpile converts snippet source into executable code for the
// sandbox. Each source variant maps to an esbuild loader: typed variants
// have their types stripped, markup-capable variants have embedded UI
// markup lowered to factory calls. Bare import specifiers are rewritten to
// remote module host URLs before conversion.
//
// The adapter initializes lazily, exactly once per process. Concurrent
// first callers share a single initialization; a failed initialization is
// cached and re-surfaced to every later caller until the process restarts.
package transpile
