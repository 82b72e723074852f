package modhost

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Errors returned by the loader.
var (
	// ErrModuleNotFound is returned when the module host has no module
	// for the requested specifier.
	ErrModuleNotFound = errors.New("modhost: module not found")

	// ErrHostUnavailable is returned when the module host cannot be
	// reached or answers with a server error.
	ErrHostUnavailable = errors.New("modhost: module host unavailable")
)

// DefaultFetchTimeout bounds a single module fetch.
const DefaultFetchTimeout = 15 * time.Second

// Fetch retrieves the source of one module URL. Implementations must be
// safe for concurrent use.
type Fetch func(url string) ([]byte, error)

// Loader fetches module source from the remote module host. It refuses
// anything that is not a host URL or a bare name resolvable to one, so
// sandboxed code can never reach the local filesystem through require.
type Loader struct {
	rewriter Rewriter
	fetch    Fetch
}

// NewLoader creates a loader resolving bare names against the rewriter's
// module host. A nil fetch installs an HTTP fetch bounded by
// DefaultFetchTimeout.
func NewLoader(rewriter Rewriter, fetch Fetch) *Loader {
	if fetch == nil {
		client := &http.Client{Timeout: DefaultFetchTimeout}
		fetch = func(url string) ([]byte, error) {
			resp, err := client.Get(url)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
			}
			defer resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, url)
			case resp.StatusCode != http.StatusOK:
				return nil, fmt.Errorf("%w: %s returned %s", ErrHostUnavailable, url, resp.Status)
			}
			return io.ReadAll(resp.Body)
		}
	}
	return &Loader{rewriter: rewriter, fetch: fetch}
}

// Load returns the source for the given specifier. Bare names are resolved
// against the module host first; everything else is normalized back onto
// the host, since the only modules a context can see live there.
func (l *Loader) Load(spec string) ([]byte, error) {
	url := l.rewriter.Resolve(normalizeSpec(spec))
	if !strings.Contains(url, "://") {
		url = l.rewriter.base() + "/" + strings.TrimLeft(url, "./")
	}
	return l.fetch(url)
}

var collapsedSchemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):/+`)

// normalizeSpec undoes the path normalization require registries apply
// before consulting the loader: node_modules prefixes are stripped and
// schemes whose double slash was collapsed are restored.
func normalizeSpec(spec string) string {
	spec = strings.TrimPrefix(spec, "./")
	for strings.HasPrefix(spec, "node_modules/") {
		spec = strings.TrimPrefix(spec, "node_modules/")
	}
	if m := collapsedSchemeRe.FindStringSubmatch(spec); m != nil {
		spec = m[1] + "://" + spec[len(m[0]):]
	}
	return spec
}
