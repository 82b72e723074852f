package transpile

import (
	"fmt"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/runpen/runpen/modhost"
)

// Format selects the module format of compiled output.
type Format int

const (
	// FormatModule emits modern module output for contexts that load
	// modules natively (the rendering document).
	FormatModule Format = iota

	// FormatCommonJS emits require-based output for the in-process
	// runtime, which resolves modules through the host's require bridge.
	FormatCommonJS
)

// JSX factory the markup-capable variants are lowered to.
const (
	jsxFactory  = "React.createElement"
	jsxFragment = "React.Fragment"
)

// Output is the result of a successful transpilation.
type Output struct {
	// Code is the compiled code.
	Code string
}

// Adapter converts snippet source to executable code. It is safe for
// concurrent use; initialization happens once, on first use.
type Adapter struct {
	rewriter modhost.Rewriter

	initOnce sync.Once
	initErr  error
}

// NewAdapter creates an adapter that rewrites bare imports through the
// given rewriter before conversion.
func NewAdapter(rewriter modhost.Rewriter) *Adapter {
	return &Adapter{rewriter: rewriter}
}

// Init initializes the adapter. It is idempotent and shared: concurrent
// callers await the same initialization, and a failure is cached and
// returned to every subsequent caller. Calling Init explicitly is
// optional; Transpile initializes on first use.
func (a *Adapter) Init() error {
	a.initOnce.Do(func() {
		// Warm-up conversion so environment faults surface here, once,
		// rather than inside an invocation.
		res := api.Transform("0", api.TransformOptions{Loader: api.LoaderJS})
		if len(res.Errors) > 0 {
			a.initErr = fmt.Errorf("%w: %s", ErrInit, res.Errors[0].Text)
		}
	})
	return a.initErr
}

// Transpile converts code for its declared variant into the requested
// module format. Parse failures return an *Error matching ErrTranspile;
// they never panic past the adapter.
func (a *Adapter) Transpile(code string, variant Variant, format Format) (Output, error) {
	if err := a.Init(); err != nil {
		return Output{}, err
	}
	if !variant.Valid() || variant == VariantProseMarkup {
		return Output{}, fmt.Errorf("%w: %q", ErrVariant, variant)
	}

	rewritten := a.rewriter.Rewrite(code)

	res := a.transform(rewritten, variant, esbuildFormat(format), esbuildTarget(format))
	if len(res.Errors) > 0 && format == FormatCommonJS && isTopLevelAwaitError(res.Errors[0]) {
		// The require-based format cannot express top-level await; leave
		// the module syntax alone and let the runtime wrapper suspend.
		res = a.transform(rewritten, variant, api.FormatDefault, api.ESNext)
	}
	if len(res.Errors) > 0 {
		return Output{}, transformError(res.Errors[0])
	}
	return Output{Code: string(res.Code)}, nil
}

func (a *Adapter) transform(code string, variant Variant, format api.Format, target api.Target) api.TransformResult {
	return api.Transform(code, api.TransformOptions{
		Loader:      variant.loader(),
		Format:      format,
		Target:      target,
		JSX:         api.JSXTransform,
		JSXFactory:  jsxFactory,
		JSXFragment: jsxFragment,
		Charset:     api.CharsetUTF8,
	})
}

func isTopLevelAwaitError(msg api.Message) bool {
	return strings.Contains(msg.Text, "Top-level await")
}

// ToCommonJS converts fetched module source to require-based form so the
// in-process runtime can evaluate it. Module sources are plain script;
// types were already stripped by the module host.
func (a *Adapter) ToCommonJS(source string) (string, error) {
	if err := a.Init(); err != nil {
		return "", err
	}
	res := api.Transform(source, api.TransformOptions{
		Loader:  api.LoaderJS,
		Format:  api.FormatCommonJS,
		Target:  api.ES2017,
		Charset: api.CharsetUTF8,
	})
	if len(res.Errors) > 0 {
		return "", transformError(res.Errors[0])
	}
	return string(res.Code), nil
}

func esbuildFormat(f Format) api.Format {
	if f == FormatCommonJS {
		return api.FormatCommonJS
	}
	return api.FormatESModule
}

func esbuildTarget(f Format) api.Target {
	// The in-process runtime tracks ES2017; the rendering document runs
	// wherever the caller displays it and keeps modern syntax.
	if f == FormatCommonJS {
		return api.ES2017
	}
	return api.ESNext
}

func transformError(msg api.Message) error {
	e := &Error{Message: msg.Text}
	if msg.Location != nil {
		e.Line = msg.Location.Line
		e.Column = msg.Location.Column
	}
	return e
}
