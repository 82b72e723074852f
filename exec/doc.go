// Package exec is the entry point for executing user-authored snippets
// and observing their effects.
//
// One call to [Exec.Execute] is one invocation: the snippet is converted
// for its declared variant, run in an isolated execution context, and
// every observable effect, whether console output, a thrown error, a
// final expression value, or a rendered view, is delivered to the caller
// as a typed output item in emission order.
//
// # Paths
//
// Three paths cover the five variants:
//
//   - Prose markup renders directly to a display document; it never
//     touches the transpiler or the sandbox.
//
//   - Markup-capable snippets that contain UI markup or export a default
//     component produce a self-contained rendering document, emitted as
//     one rendered-view item without awaiting what happens inside it.
//
//   - Everything else runs in plain-value mode: an isolated in-process
//     runtime with an intercepted console, error capture, and a fixed
//     wall-clock budget.
//
// # Failure Policy
//
// No failure inside an invocation escapes the callback: malformed source,
// thrown exceptions, unhandled rejections, and timeouts all terminate in
// an error item, and Execute returns nil. Execute returns an error only
// for caller misuse (a bad request), caller cancellation, and sticky
// transpiler initialization faults, which are also surfaced as items so
// the caller's display stays truthful.
package exec
