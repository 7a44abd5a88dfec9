package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/goliatone/go-lazyselect/pkg/dom"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustLoadPage parses an HTML fixture. Testing helpers fail the test on error
// to keep setup concise.
func MustLoadPage(t *testing.T, path string) *dom.Page {
	t.Helper()

	page, err := LoadPage(path)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	return page
}

// LoadPage reads an HTML fixture without requiring testing.T.
func LoadPage(path string) (*dom.Page, error) {
	if path == "" {
		return nil, errors.New("testsupport: page path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: open page: %w", err)
	}
	defer file.Close()
	return dom.Parse(file)
}
