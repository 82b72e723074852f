// Package sandbox creates and destroys isolated execution contexts for
// compiled snippets and captures everything they observably do.
//
// # Modes
//
// Plain-value mode runs the compiled code in a fresh in-process script
// runtime with its own event loop. The context gets an intercepted
// console, a thrown-error handler, and an unhandled-rejection tracker;
// each forwards a typed protocol message tagged with the context's
// correlation id into the invocation's private subscription. The code is
// wrapped in an asynchronous block so top-level suspension works. A fixed
// wall-clock budget bounds every run; on expiry the host emits a timeout
// error item and tears the context down unilaterally.
//
// Rendering mode builds a self-contained display document that loads the
// UI library from the module host and evaluates the compiled module
// in-document. The execution wrapper classifies its own result as
// element, component, value, or none before handing it to the render
// switch. Rendering is fire-and-forget: the host emits the document and
// does not await completion, and evaluation errors render in place of
// the view.
//
// # Teardown
//
// Every temporary resource created for a context, the runtime itself and
// any staged content handle, is released exactly once on every exit
// path: normal completion, error, or timeout. Correlation ids are never
// reused, so protocol messages from a torn-down context are inert.
package sandbox
