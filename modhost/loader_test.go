package modhost

import (
	"errors"
	"testing"
)

func TestLoader_ResolvesBareName(t *testing.T) {
	var fetched string
	loader := NewLoader(Rewriter{}, func(url string) ([]byte, error) {
		fetched = url
		return []byte("export default 1"), nil
	})

	src, err := loader.Load("lodash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched != "https://esm.sh/lodash" {
		t.Errorf("fetched %q", fetched)
	}
	if string(src) != "export default 1" {
		t.Errorf("source = %q", src)
	}
}

func TestLoader_PassesThroughHostURL(t *testing.T) {
	var fetched string
	loader := NewLoader(Rewriter{}, func(url string) ([]byte, error) {
		fetched = url
		return nil, nil
	})

	if _, err := loader.Load("https://esm.sh/dayjs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched != "https://esm.sh/dayjs" {
		t.Errorf("fetched %q", fetched)
	}
}

func TestLoader_NormalizedPathGoesBackToHost(t *testing.T) {
	// Require registries strip URL prefixes while normalizing paths;
	// whatever remains must still resolve on the module host, never the
	// local filesystem.
	var fetched string
	loader := NewLoader(Rewriter{}, func(url string) ([]byte, error) {
		fetched = url
		return nil, nil
	})

	if _, err := loader.Load("./dayjs/plugin/utc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched != "https://esm.sh/dayjs/plugin/utc" {
		t.Errorf("fetched %q", fetched)
	}
}

func TestLoader_RestoresCollapsedScheme(t *testing.T) {
	var fetched string
	loader := NewLoader(Rewriter{}, func(url string) ([]byte, error) {
		fetched = url
		return nil, nil
	})

	if _, err := loader.Load("node_modules/https:/esm.sh/add"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched != "https://esm.sh/add" {
		t.Errorf("fetched %q", fetched)
	}
}

func TestLoader_PropagatesFetchError(t *testing.T) {
	loader := NewLoader(Rewriter{}, func(url string) ([]byte, error) {
		return nil, ErrModuleNotFound
	})
	if _, err := loader.Load("nope"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got %v", err)
	}
}
