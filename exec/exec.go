package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/runpen/runpen/markup"
	"github.com/runpen/runpen/modhost"
	"github.com/runpen/runpen/protocol"
	"github.com/runpen/runpen/sandbox"
	"github.com/runpen/runpen/transpile"
)

// Variant is the declared source dialect of a snippet.
type Variant = transpile.Variant

// The five recognized variants.
const (
	VariantTypedScript       = transpile.VariantTypedScript
	VariantTypedScriptMarkup = transpile.VariantTypedScriptMarkup
	VariantPlainScript       = transpile.VariantPlainScript
	VariantPlainScriptMarkup = transpile.VariantPlainScriptMarkup
	VariantProseMarkup       = transpile.VariantProseMarkup
)

// OutputItem is one observable effect of an invocation.
type OutputItem = protocol.OutputItem

// Request describes one invocation.
type Request struct {
	// Code is the snippet source text.
	Code string

	// Variant is the snippet's declared dialect.
	Variant Variant

	// OnOutput receives each output item as it is produced, in emission
	// order. Required. It is called from the invocation's goroutine and
	// must not block for long.
	OnOutput func(OutputItem)
}

// validate checks the request for caller misuse.
func (r *Request) validate() error {
	if r.OnOutput == nil {
		return fmt.Errorf("%w: OnOutput callback is required", ErrConfiguration)
	}
	if !r.Variant.Valid() {
		return fmt.Errorf("%w: unknown variant %q", ErrConfiguration, r.Variant)
	}
	return nil
}

// Exec executes snippets and reports their observable effects.
//
// Contract:
// - Concurrency: safe for concurrent use; overlapping invocations are
//   neither serialized nor cancelled against each other.
// - Context: Execute honors cancellation; a canceled invocation's context
//   is torn down like a timed-out one.
// - Errors: in-snippet failures surface as output items, not errors.
type Exec struct {
	adapter *transpile.Adapter
	host    *sandbox.Host
	logger  Logger
}

// New creates an Exec with the given options.
// Returns ErrConfiguration if the options are contradictory.
func New(opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	rewriter := modhost.Rewriter{BaseURL: opts.ModuleHostBaseURL}
	adapter := transpile.NewAdapter(rewriter)
	host := sandbox.NewHost(
		sandbox.WithBudget(opts.Budget),
		sandbox.WithBaseURL(opts.ModuleHostBaseURL),
		sandbox.WithModuleLoader(modhost.NewLoader(rewriter, opts.Fetch)),
		sandbox.WithModuleConverter(adapter.ToCommonJS),
		sandbox.WithLogger(opts.Logger),
	)

	return &Exec{
		adapter: adapter,
		host:    host,
		logger:  opts.Logger,
	}, nil
}

// Execute runs one invocation and resolves when its observable lifecycle
// is complete: after the done signal or timeout on the plain-value path,
// or immediately after the view is produced on the rendering and markup
// paths.
func (e *Exec) Execute(ctx context.Context, req Request) error {
	if err := req.validate(); err != nil {
		return err
	}

	switch {
	case req.Variant == VariantProseMarkup:
		doc, err := markup.Render(req.Code)
		if err != nil {
			req.OnOutput(protocol.NewItem(protocol.ItemError, err.Error()))
			return nil
		}
		req.OnOutput(protocol.NewItem(protocol.ItemRenderedView, doc))
		return nil

	case e.renderable(req):
		out, err := e.adapter.Transpile(req.Code, req.Variant, transpile.FormatModule)
		if err != nil {
			return e.reportCompileFailure(req.OnOutput, err)
		}
		req.OnOutput(protocol.NewItem(protocol.ItemRenderedView, e.host.RenderView(out.Code)))
		return nil

	default:
		out, err := e.adapter.Transpile(req.Code, req.Variant, transpile.FormatCommonJS)
		if err != nil {
			return e.reportCompileFailure(req.OnOutput, err)
		}
		return e.host.Run(ctx, out.Code, func(item protocol.OutputItem) {
			req.OnOutput(item)
		})
	}
}

// renderable reports whether the invocation takes the rendering path:
// the variant must be markup-capable and the code must either contain
// markup syntax or export a default component or element.
func (e *Exec) renderable(req Request) bool {
	return req.Variant.MarkupCapable() &&
		(transpile.ContainsMarkup(req.Code) || transpile.HasDefaultExport(req.Code))
}

// reportCompileFailure turns a transpilation failure into an error item.
// Initialization failures are sticky for the process; they are logged and
// returned so the caller can distinguish them from snippet mistakes.
func (e *Exec) reportCompileFailure(emit func(OutputItem), err error) error {
	emit(protocol.NewItem(protocol.ItemError, err.Error()))
	if errors.Is(err, transpile.ErrInit) {
		e.logf("transpiler initialization failed: %v", err)
		return err
	}
	return nil
}

func (e *Exec) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}
