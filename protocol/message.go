package protocol

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind identifies the type of a protocol message.
type MessageKind string

// Message kinds emitted by an execution context.
const (
	MessageConsole MessageKind = "console"
	MessageError   MessageKind = "error"
	MessageResult  MessageKind = "result"
	MessageDone    MessageKind = "done"
)

// ConsoleMethod identifies which console method produced a console message.
type ConsoleMethod string

// Console methods intercepted inside an execution context.
const (
	ConsoleLog   ConsoleMethod = "log"
	ConsoleError ConsoleMethod = "error"
	ConsoleWarn  ConsoleMethod = "warn"
	ConsoleInfo  ConsoleMethod = "info"
)

// Message is one event forwarded from an execution context to its host.
// Exactly one payload field is set, matching Kind. A done message is
// emitted exactly once per context, whether the wrapped code succeeded
// or threw, and is the sole trigger for normal teardown.
type Message struct {
	// CorrelationID ties the message to the invocation whose context
	// emitted it. Ids are never reused within a process lifetime.
	CorrelationID uint64

	// Kind selects the payload.
	Kind MessageKind

	// Console is set when Kind is MessageConsole.
	Console *ConsolePayload

	// Error is set when Kind is MessageError.
	Error *ErrorPayload

	// Result is set when Kind is MessageResult.
	Result *ResultPayload
}

// ConsolePayload carries one intercepted console call. Args are already
// stringified independently by the context bridge; the classifier only
// joins them.
type ConsolePayload struct {
	Method ConsoleMethod
	Args   []string
}

// ErrorPayload carries a thrown exception or unhandled rejection.
type ErrorPayload struct {
	Message string
}

// ResultPayload carries the final-expression value of the wrapped code.
// HasValue is false when the code settled with no value (undefined); the
// classifier suppresses the item in that case.
type ResultPayload struct {
	Value    string
	HasValue bool
}

// ItemKind identifies the type of an output item.
type ItemKind string

// Output item kinds delivered to callers.
const (
	ItemLog          ItemKind = "log"
	ItemError        ItemKind = "error"
	ItemWarn         ItemKind = "warn"
	ItemInfo         ItemKind = "info"
	ItemResult       ItemKind = "result"
	ItemRenderedView ItemKind = "rendered-view"
)

// OutputItem is one observable effect of an invocation: a log line, an
// error, a final-expression value, or a rendered view. Items are delivered
// in emission order; CreatedAt is informational only and is not a sort key.
type OutputItem struct {
	// ID uniquely identifies the item.
	ID string `json:"id"`

	// Kind classifies the item.
	Kind ItemKind `json:"kind"`

	// Content is the textual or markup content of the item.
	Content string `json:"content"`

	// CreatedAt is the item creation time in Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// NewItem creates an output item of the given kind with a fresh unique id.
func NewItem(kind ItemKind, content string) OutputItem {
	return OutputItem{
		ID:        uuid.NewString(),
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
}
