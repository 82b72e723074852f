package sandbox

import (
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/runpen/runpen/protocol"
)

// correlationSeq issues correlation ids, process-wide and never reused.
var correlationSeq atomic.Uint64

func nextCorrelationID() uint64 {
	return correlationSeq.Add(1)
}

// bootstrap wraps the compiled code in an asynchronous block. The direct
// eval path preserves the final-expression value; code using top-level
// await falls back to an async function body, whose completion value is
// undefined unless returned. Settlement reports exactly one done signal
// through the finally block.
const bootstrap = `
(async () => {
	let __v;
	try {
		try {
			__v = (0, eval)(__code);
		} catch (e) {
			if (e instanceof SyntaxError && /\bawait\b/.test(__code)) {
				const AsyncFunction = Object.getPrototypeOf(async function () {}).constructor;
				__v = new AsyncFunction(__code)();
			} else {
				throw e;
			}
		}
		__v = await __v;
		__report(__v);
	} catch (e) {
		__throw(String((e && e.message) || e));
	} finally {
		__done();
	}
})();
`

var bootstrapProg = goja.MustCompile("runpen:bootstrap", bootstrap, false)

// execContext is the isolated runtime created for one invocation. It is
// exclusively owned by that invocation and never outlives it.
//
// All bridge state (stringify, rejected) is touched on the event loop
// goroutine only. The runtime pointer is the one field shared with the
// host goroutine, for interrupt on teardown.
type execContext struct {
	id       uint64
	loop     *eventloop.EventLoop
	msgs     chan<- protocol.Message
	stop     chan struct{}
	compiled *Handle

	vmMu sync.Mutex
	vm   *goja.Runtime

	stringify goja.Callable
	isError   goja.Callable
	rejected  map[*goja.Promise]string

	doneSent atomic.Bool
	tornFlag atomic.Bool
	torn     sync.Once
}

// adopt records the runtime and reports whether the context is still
// live. A context torn down before its loop job started must not run the
// job at all; one torn down mid-job is stopped by interrupt.
func (c *execContext) adopt(vm *goja.Runtime) bool {
	c.vmMu.Lock()
	c.vm = vm
	c.vmMu.Unlock()
	return !c.tornFlag.Load()
}

// post forwards a message to the invocation's subscription. While the
// context is live the send blocks until the host receives it, so no
// output from running code is ever lost. Teardown closes stop, unblocking
// any in-flight send; only those late messages are dropped, inert by
// contract.
func (c *execContext) post(msg protocol.Message) {
	select {
	case c.msgs <- msg:
	case <-c.stop:
	}
}

func (c *execContext) postDone() {
	if c.doneSent.CompareAndSwap(false, true) {
		c.post(protocol.Message{CorrelationID: c.id, Kind: protocol.MessageDone})
	}
}

func (c *execContext) postError(message string) {
	c.post(protocol.Message{
		CorrelationID: c.id,
		Kind:          protocol.MessageError,
		Error:         &protocol.ErrorPayload{Message: message},
	})
}

// install binds the protocol bridge into the runtime: the intercepted
// console, result and error reporters, the unhandled-rejection tracker,
// and the module scaffolding the compiled code expects. Runs on the event
// loop goroutine.
func (c *execContext) install(vm *goja.Runtime) error {
	c.rejected = make(map[*goja.Promise]string)

	jsonObj := vm.Get("JSON").ToObject(vm)
	stringify, ok := goja.AssertFunction(jsonObj.Get("stringify"))
	if !ok {
		return errInternal("JSON.stringify unavailable")
	}
	c.stringify = stringify

	isErrVal, err := vm.RunString("(function (v) { return v instanceof Error })")
	if err != nil {
		return err
	}
	isError, ok := goja.AssertFunction(isErrVal)
	if !ok {
		return errInternal("Error detection helper unavailable")
	}
	c.isError = isError

	console := vm.NewObject()
	for _, method := range []protocol.ConsoleMethod{
		protocol.ConsoleLog, protocol.ConsoleError, protocol.ConsoleWarn, protocol.ConsoleInfo,
	} {
		method := method
		if err := console.Set(string(method), func(call goja.FunctionCall) goja.Value {
			args := make([]string, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				args = append(args, c.stringifyValue(a))
			}
			c.post(protocol.Message{
				CorrelationID: c.id,
				Kind:          protocol.MessageConsole,
				Console:       &protocol.ConsolePayload{Method: method, Args: args},
			})
			return goja.Undefined()
		}); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	if err := vm.Set("__report", func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0)
		payload := &protocol.ResultPayload{}
		if !goja.IsUndefined(v) {
			payload.Value = c.stringifyValue(v)
			payload.HasValue = true
		}
		c.post(protocol.Message{
			CorrelationID: c.id,
			Kind:          protocol.MessageResult,
			Result:        payload,
		})
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := vm.Set("__throw", func(call goja.FunctionCall) goja.Value {
		c.postError(call.Argument(0).String())
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := vm.Set("__done", func(call goja.FunctionCall) goja.Value {
		c.flushRejections()
		c.postDone()
		return goja.Undefined()
	}); err != nil {
		return err
	}

	// Rejections picked up by a handler later in the same run are not
	// unhandled; track and settle at done time.
	vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		switch op {
		case goja.PromiseRejectionReject:
			c.rejected[p] = c.stringifyValue(p.Result())
		case goja.PromiseRejectionHandle:
			delete(c.rejected, p)
		}
	})

	// CommonJS scaffolding for compiled exports; eval'd scripts have no
	// module of their own.
	exports := vm.NewObject()
	module := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return err
	}
	if err := vm.Set("exports", exports); err != nil {
		return err
	}
	if err := vm.Set("module", module); err != nil {
		return err
	}

	return vm.Set("__code", c.compiled.Content())
}

// flushRejections reports promises still unhandled when the wrapped code
// settles, always before done.
func (c *execContext) flushRejections() {
	pending := c.rejected
	c.rejected = make(map[*goja.Promise]string)
	for _, msg := range pending {
		c.postError(msg)
	}
}

// stringifyValue renders one value for the console or result payload:
// the message for Error instances, structural text for other objects,
// natural text for primitives, generic string conversion when structural
// stringification fails (circular references, functions). Error detection
// goes through the runtime's instanceof so plain objects that merely carry
// message and stack properties keep their structural form. Runs on the
// event loop goroutine.
func (c *execContext) stringifyValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if obj, isObj := v.(*goja.Object); isObj {
		if c.isError != nil {
			if res, err := c.isError(goja.Undefined(), v); err == nil && res.ToBoolean() {
				if msg := obj.Get("message"); msg != nil {
					return msg.String()
				}
			}
		}
		if c.stringify != nil {
			if res, err := c.stringify(goja.Undefined(), v); err == nil && !goja.IsUndefined(res) {
				return res.String()
			}
		}
	}
	return v.String()
}

// interrupt stops whatever the runtime is doing. Safe to call from any
// goroutine.
func (c *execContext) interrupt() {
	c.vmMu.Lock()
	vm := c.vm
	c.vmMu.Unlock()
	if vm != nil {
		vm.Interrupt("context torn down")
	}
}

// teardown destroys the context: interrupts the runtime, stops the event
// loop, and releases the staged content handle. It runs exactly once no
// matter how the invocation ended.
func (c *execContext) teardown() {
	c.torn.Do(func() {
		c.tornFlag.Store(true)
		close(c.stop)
		c.interrupt()
		c.loop.StopNoWait()
		c.compiled.Release()
	})
}

type errInternal string

func (e errInternal) Error() string { return string(e) }
