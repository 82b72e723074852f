package exec

import (
	"errors"
	"fmt"
	"time"

	"github.com/runpen/runpen/modhost"
	"github.com/runpen/runpen/sandbox"
)

// Default configuration values.
const (
	DefaultBudget = sandbox.DefaultBudget
)

// ErrConfiguration indicates an invalid or incomplete configuration or
// request.
var ErrConfiguration = errors.New("configuration error")

// Logger is an optional interface for observability.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// Options configures an Exec instance.
type Options struct {
	// ModuleHostBaseURL is the remote module host that bare import
	// specifiers are rewritten to.
	// Default: modhost.DefaultBaseURL
	ModuleHostBaseURL string

	// Budget is the wall-clock budget per plain-value invocation.
	// Default: DefaultBudget
	Budget time.Duration

	// Fetch overrides how module source is retrieved from the module
	// host. Optional; if nil, a bounded HTTP fetch is used.
	Fetch modhost.Fetch

	// Logger is an optional logger for observability.
	Logger Logger
}

// validate checks the options for contradictions.
func (o *Options) validate() error {
	if o.Budget < 0 {
		return fmt.Errorf("%w: Budget must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() {
	if o.ModuleHostBaseURL == "" {
		o.ModuleHostBaseURL = modhost.DefaultBaseURL
	}
	if o.Budget == 0 {
		o.Budget = DefaultBudget
	}
}
