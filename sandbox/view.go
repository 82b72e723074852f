package sandbox

import (
	"encoding/base64"
	"fmt"
)

// viewShell is the self-contained rendering document. The compiled module
// travels by reference as a data URL; the bootstrap classifies
// its own result (element, component, value, none) before handing it to
// the render switch, and evaluation errors render in place of the view.
//
// %[1]s: module host base URL, %[2]s: base64 compiled module.
const viewShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 16px; color: #1f2328; }
.runpen-error { color: #d1242f; background: #fff1f0; border: 1px solid #ffccc7; border-radius: 6px; padding: 12px; font-family: monospace; white-space: pre-wrap; }
.runpen-placeholder { color: #6e7781; font-style: italic; }
.runpen-value { font-family: monospace; white-space: pre-wrap; }
</style>
</head>
<body>
<div id="root"></div>
<script type="module">
const mount = document.getElementById('root');

function classifyResult(mod, React) {
	const value = mod.default;
	if (value === undefined) return { tag: 'none', value };
	if (React.isValidElement(value)) return { tag: 'element', value };
	if (typeof value === 'function') return { tag: 'component', value };
	return { tag: 'value', value };
}

function render(tagged, React, createRoot) {
	switch (tagged.tag) {
	case 'element':
		createRoot(mount).render(tagged.value);
		break;
	case 'component':
		createRoot(mount).render(React.createElement(tagged.value));
		break;
	case 'value': {
		const pre = document.createElement('pre');
		pre.className = 'runpen-value';
		let text;
		try { text = JSON.stringify(tagged.value, null, 2); } catch { text = String(tagged.value); }
		pre.textContent = text === undefined ? String(tagged.value) : text;
		mount.appendChild(pre);
		break;
	}
	default: {
		const p = document.createElement('p');
		p.className = 'runpen-placeholder';
		p.textContent = 'Nothing was returned. Export a component or element as the default export to render it.';
		mount.appendChild(p);
	}
	}
}

function renderError(err) {
	const box = document.createElement('div');
	box.className = 'runpen-error';
	box.textContent = String((err && err.stack) || err);
	mount.replaceChildren(box);
}

(async () => {
	try {
		const [reactMod, domMod] = await Promise.all([
			import('%[1]s/react'),
			import('%[1]s/react-dom/client'),
		]);
		const React = reactMod.default ?? reactMod;
		const createRoot = domMod.createRoot ?? domMod.default.createRoot;
		window.React = React;
		const mod = await import('data:text/javascript;base64,%[2]s');
		render(classifyResult(mod, React), React, createRoot);
	} catch (err) {
		renderError(err);
	}
})();
</script>
</body>
</html>
`

// RenderView builds the rendering-mode document for a compiled module.
// The compiled source is embedded in the document itself, so no host-side
// resource outlives the call. The returned document is self-contained;
// the host does not await anything that happens inside it.
func (h *Host) RenderView(compiled string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(compiled))
	return fmt.Sprintf(viewShell, h.baseURL, encoded)
}
