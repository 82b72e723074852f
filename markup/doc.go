// Package markup renders prose-markup snippets to a self-contained display
// document. It never touches the transpiler or the sandbox.
package markup
