package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/runpen/runpen/modhost"
	"github.com/runpen/runpen/protocol"
)

// DefaultBudget is the wall-clock budget for one plain-value invocation.
const DefaultBudget = 10 * time.Second

// msgBuffer sizes the per-invocation message subscription. The buffer
// smooths bursts; a context that outproduces the caller blocks on the
// next post until the host catches up, so no live output is lost. Only a
// torn-down context's late messages are dropped.
const msgBuffer = 256

// EmitFunc delivers one output item to the caller, in emission order.
type EmitFunc func(protocol.OutputItem)

// ModuleLoader supplies module source for specifiers the sandboxed code
// requires. Implementations must be safe for concurrent use.
type ModuleLoader interface {
	Load(spec string) ([]byte, error)
}

// Logger is an optional interface for observability during execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
type Logger interface {
	Logf(format string, args ...any)
}

// Host creates one isolated execution context per invocation, runs
// compiled code in it, and forwards classified output to the caller.
// A Host is safe for concurrent use; contexts share nothing but the
// module cache.
type Host struct {
	budget  time.Duration
	baseURL string
	loader  ModuleLoader
	convert func(source string) (string, error)
	logger  Logger

	handles  *Handles
	registry *require.Registry
}

// Option configures a Host.
type Option func(*Host)

// WithBudget sets the wall-clock budget per plain-value invocation.
func WithBudget(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.budget = d
		}
	}
}

// WithBaseURL sets the remote module host used for module resolution and
// for the rendering document's library imports.
func WithBaseURL(url string) Option {
	return func(h *Host) {
		if url != "" {
			h.baseURL = url
		}
	}
}

// WithModuleLoader replaces the module source loader.
func WithModuleLoader(l ModuleLoader) Option {
	return func(h *Host) {
		h.loader = l
	}
}

// WithModuleConverter sets the converter applied to fetched module source
// before the context evaluates it.
func WithModuleConverter(convert func(source string) (string, error)) Option {
	return func(h *Host) {
		h.convert = convert
	}
}

// WithLogger sets an optional logger.
func WithLogger(l Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// NewHost creates a host with the given options.
func NewHost(opts ...Option) *Host {
	h := &Host{
		budget:  DefaultBudget,
		baseURL: modhost.DefaultBaseURL,
		handles: NewHandles(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.loader == nil {
		h.loader = modhost.NewLoader(modhost.Rewriter{BaseURL: h.baseURL}, nil)
	}
	// The registry resolves specifiers through the module host only;
	// sandboxed code never touches the local filesystem.
	h.registry = require.NewRegistry(require.WithLoader(h.moduleSource))
	return h
}

// Handles exposes the staged-content registry, mainly so callers and
// tests can verify nothing leaks across invocations.
func (h *Host) Handles() *Handles { return h.handles }

// Run executes compiled code in plain-value mode: a fresh execution
// context is created for this invocation alone, observable effects are
// classified and emitted in arrival order, and the context is torn down
// exactly once whether the code completes, throws, or exceeds the budget.
//
// Run returns nil for everything the snippet itself did, including thrown
// errors and timeouts; those surface as output items. The returned error
// is reserved for caller-level faults such as a canceled context.
func (h *Host) Run(ctx context.Context, compiled string, emit EmitFunc) error {
	if emit == nil {
		return errors.New("sandbox: emit callback is required")
	}

	msgs := make(chan protocol.Message, msgBuffer)
	c := &execContext{
		id:       nextCorrelationID(),
		loop:     eventloop.NewEventLoop(eventloop.WithRegistry(h.registry), eventloop.EnableConsole(false)),
		msgs:     msgs,
		stop:     make(chan struct{}),
		compiled: h.handles.Stage(compiled),
	}
	defer c.teardown()

	c.loop.Start()
	c.loop.RunOnLoop(func(vm *goja.Runtime) {
		if !c.adopt(vm) {
			return
		}
		if err := c.install(vm); err != nil {
			c.postError("context setup failed: " + err.Error())
			c.postDone()
			return
		}
		if _, err := vm.RunProgram(bootstrapProg); err != nil {
			var interrupted *goja.InterruptedError
			if !errors.As(err, &interrupted) {
				c.postError(err.Error())
				c.postDone()
			}
		}
	})

	timer := time.NewTimer(h.budget)
	defer timer.Stop()

	for {
		select {
		case msg := <-msgs:
			if msg.CorrelationID != c.id {
				// A torn-down context's messages are inert.
				continue
			}
			if msg.Kind == protocol.MessageDone {
				h.logf("context %d completed", c.id)
				return nil
			}
			if item, ok := protocol.Classify(msg); ok {
				emit(item)
			}
		case <-timer.C:
			emit(protocol.NewItem(protocol.ItemError,
				fmt.Sprintf("execution timed out after %s", h.budget)))
			h.logf("context %d timed out after %s", c.id, h.budget)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// moduleSource feeds the require bridge: fetch from the module host, then
// convert to the form the in-process runtime evaluates.
func (h *Host) moduleSource(path string) ([]byte, error) {
	src, err := h.loader.Load(path)
	if err != nil {
		if errors.Is(err, modhost.ErrModuleNotFound) {
			return nil, require.ModuleFileDoesNotExistError
		}
		return nil, err
	}
	if h.convert == nil {
		return src, nil
	}
	converted, err := h.convert(string(src))
	if err != nil {
		return nil, err
	}
	return []byte(converted), nil
}

func (h *Host) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Logf(format, args...)
	}
}
