package render

import (
	"context"
	"fmt"
)

// MockRenderer serves page text from a fixed map. Pages absent from the map
// fail with a ConversionError, which is how tests exercise the skip path.
type MockRenderer struct {
	Pages map[int]string
}

// RenderPage returns the scripted text for a page.
func (m *MockRenderer) RenderPage(_ context.Context, _ *Document, pageIndex int) (string, error) {
	text, ok := m.Pages[pageIndex]
	if !ok {
		return "", &ConversionError{Page: pageIndex, Err: fmt.Errorf("no scripted rendering")}
	}
	return text, nil
}

var _ PageRenderer = (*MockRenderer)(nil)
