package exec

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/runpen/runpen/protocol"
	"github.com/runpen/runpen/transpile"
)

// recorder collects output items in emission order.
type recorder struct {
	mu    sync.Mutex
	items []OutputItem
}

func (r *recorder) emit(item OutputItem) {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
}

func (r *recorder) all() []OutputItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OutputItem(nil), r.items...)
}

// recordingLogger captures log lines.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, format)
}

func newTestExec(t *testing.T, opts Options) *Exec {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func runSnippet(t *testing.T, e *Exec, code string, variant Variant) []OutputItem {
	t.Helper()
	rec := &recorder{}
	if err := e.Execute(context.Background(), Request{
		Code:     code,
		Variant:  variant,
		OnOutput: rec.emit,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return rec.all()
}

func TestNew_NegativeBudget(t *testing.T) {
	_, err := New(Options{Budget: -time.Second})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecute_RequiresOnOutput(t *testing.T) {
	e := newTestExec(t, Options{})
	err := e.Execute(context.Background(), Request{Code: "1", Variant: VariantPlainScript})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecute_RejectsUnknownVariant(t *testing.T) {
	e := newTestExec(t, Options{})
	err := e.Execute(context.Background(), Request{
		Code:     "1",
		Variant:  Variant("cobol"),
		OnOutput: func(OutputItem) {},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExecute_LogThenResult(t *testing.T) {
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "console.log('hi'); 2 + 2", VariantTypedScript)

	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemLog || items[0].Content != "hi" {
		t.Errorf("item 0 = %s %q", items[0].Kind, items[0].Content)
	}
	if items[1].Kind != protocol.ItemResult || items[1].Content != "4" {
		t.Errorf("item 1 = %s %q", items[1].Kind, items[1].Content)
	}
}

func TestExecute_PureExpressionProducesOnlyResult(t *testing.T) {
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "const x: number = 21; x * 2", VariantTypedScript)

	if len(items) != 1 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemResult || items[0].Content != "42" {
		t.Errorf("item = %s %q", items[0].Kind, items[0].Content)
	}
}

func TestExecute_ThrownError(t *testing.T) {
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "throw new Error('boom')", VariantPlainScript)

	if len(items) != 1 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemError || items[0].Content != "boom" {
		t.Errorf("item = %s %q", items[0].Kind, items[0].Content)
	}
}

func TestExecute_TranspileErrorBecomesItem(t *testing.T) {
	e := newTestExec(t, Options{})
	rec := &recorder{}
	err := e.Execute(context.Background(), Request{
		Code:     "const = ;",
		Variant:  VariantTypedScript,
		OnOutput: rec.emit,
	})
	if err != nil {
		t.Fatalf("transpile failures must not escape: %v", err)
	}

	items := rec.all()
	if len(items) != 1 || items[0].Kind != protocol.ItemError {
		t.Fatalf("got %+v, want one error item", items)
	}
}

func TestExecute_ProseMarkup(t *testing.T) {
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "# Title\n**bold**", VariantProseMarkup)

	if len(items) != 1 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemRenderedView {
		t.Fatalf("kind = %s", items[0].Kind)
	}
	if !strings.Contains(items[0].Content, "<h1>Title</h1>") {
		t.Errorf("missing heading in %q", items[0].Content)
	}
	if !strings.Contains(items[0].Content, "<strong>bold</strong>") {
		t.Errorf("missing bold in %q", items[0].Content)
	}
}

func TestExecute_RenderingPathForMarkup(t *testing.T) {
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "export default function App() { return <p>hi</p> }", VariantTypedScriptMarkup)

	if len(items) != 1 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemRenderedView {
		t.Fatalf("kind = %s", items[0].Kind)
	}
	if !strings.Contains(items[0].Content, "data:text/javascript;base64,") {
		t.Errorf("module not staged in document")
	}
}

func TestExecute_MarkupVariantWithoutMarkupRunsPlain(t *testing.T) {
	// A markup-capable variant whose code neither contains markup nor
	// exports a default still runs in plain-value mode.
	e := newTestExec(t, Options{})
	items := runSnippet(t, e, "console.log('plain'); 1 + 1", VariantTypedScriptMarkup)

	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemLog || items[1].Kind != protocol.ItemResult {
		t.Errorf("kinds = %s, %s", items[0].Kind, items[1].Kind)
	}
}

func TestExecute_Timeout(t *testing.T) {
	e := newTestExec(t, Options{Budget: 200 * time.Millisecond})
	items := runSnippet(t, e, "while (true) {}", VariantPlainScript)

	if len(items) != 1 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Kind != protocol.ItemError || !strings.Contains(items[0].Content, "timed out") {
		t.Errorf("item = %s %q", items[0].Kind, items[0].Content)
	}
}

func TestExecute_OverlappingInvocations(t *testing.T) {
	e := newTestExec(t, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &recorder{}
			if err := e.Execute(context.Background(), Request{
				Code:     "console.log('go'); 7",
				Variant:  VariantPlainScript,
				OnOutput: rec.emit,
			}); err != nil {
				t.Errorf("Execute: %v", err)
				return
			}
			items := rec.all()
			if len(items) != 2 {
				t.Errorf("got %d items: %+v", len(items), items)
			}
		}()
	}
	wg.Wait()
}

func TestExecute_ImportRewriteReachesLoader(t *testing.T) {
	var mu sync.Mutex
	var fetched []string
	e := newTestExec(t, Options{
		Fetch: func(url string) ([]byte, error) {
			mu.Lock()
			fetched = append(fetched, url)
			mu.Unlock()
			return []byte("module.exports = { noop: function () {} }"), nil
		},
	})

	items := runSnippet(t, e, "import _ from 'lodash'; _.noop(); 'ok'", VariantPlainScript)

	mu.Lock()
	defer mu.Unlock()
	var hit bool
	for _, url := range fetched {
		if strings.Contains(url, "esm.sh/lodash") {
			hit = true
		}
	}
	if !hit {
		t.Errorf("module host never consulted for lodash: %v (items %+v)", fetched, items)
	}
}

func TestExecute_LogsLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	e := newTestExec(t, Options{Logger: logger})
	runSnippet(t, e, "1 + 1", VariantPlainScript)

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.lines) == 0 {
		t.Error("expected lifecycle logging")
	}
}

func TestVariantHelpers(t *testing.T) {
	if !transpile.VariantTypedScriptMarkup.MarkupCapable() {
		t.Error("typed-script-markup should be markup capable")
	}
	if transpile.VariantTypedScript.MarkupCapable() {
		t.Error("typed-script should not be markup capable")
	}
}
