// Package protocol defines the typed message channel between an execution
// context and its host, and the classifier that turns raw messages into
// caller-visible output items.
//
// Every message carries the correlation id of the context that emitted it.
// Hosts must discard messages whose correlation id does not match the
// invocation they are currently awaiting; this is what makes late or
// duplicate signals from a torn-down context inert.
//
// Classification is a pure mapping: console messages become one item each,
// keyed by the console method; error messages become error items; result
// messages become result items unless the context reported no value; done
// messages never produce an item and only signal the host to stop waiting.
package protocol
