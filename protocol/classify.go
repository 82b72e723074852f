package protocol

import "strings"

// Classify converts a protocol message into an output item. It is a pure
// mapping with no side effects. The second return value is false when the
// message produces no item: done messages, result messages with no value,
// and malformed messages whose payload is missing.
func Classify(msg Message) (OutputItem, bool) {
	switch msg.Kind {
	case MessageConsole:
		if msg.Console == nil {
			return OutputItem{}, false
		}
		return NewItem(itemKindForMethod(msg.Console.Method),
			strings.Join(msg.Console.Args, " ")), true

	case MessageError:
		if msg.Error == nil {
			return OutputItem{}, false
		}
		return NewItem(ItemError, msg.Error.Message), true

	case MessageResult:
		if msg.Result == nil || !msg.Result.HasValue {
			return OutputItem{}, false
		}
		return NewItem(ItemResult, msg.Result.Value), true

	default:
		// Done and unknown kinds carry no caller-visible content.
		return OutputItem{}, false
	}
}

// itemKindForMethod maps a console method to its item kind 1:1. Unknown
// methods degrade to plain log lines.
func itemKindForMethod(m ConsoleMethod) ItemKind {
	switch m {
	case ConsoleError:
		return ItemError
	case ConsoleWarn:
		return ItemWarn
	case ConsoleInfo:
		return ItemInfo
	default:
		return ItemLog
	}
}
