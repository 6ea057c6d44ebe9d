package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/bioclick/bioclick/internal/services"
)

// fileSelection is one outcome of the picker dialog.
type fileSelection struct {
	path string
	ok   bool
	err  error
}

// newFileSelection converts the open-dialog callback arguments into a
// selection result. A nil reader with no error is user cancellation,
// not a failure; a confirmed pick yields the chosen path unmodified.
func newFileSelection(reader fyne.URIReadCloser, err error) fileSelection {
	if err != nil {
		return fileSelection{err: err}
	}
	if reader == nil {
		// User cancelled
		return fileSelection{}
	}
	path := reader.URI().Path()
	reader.Close()
	return fileSelection{path: path, ok: true}
}

// FyneFileSelector shows the native-style Fyne open dialog filtered to
// sequence files. Select must not be called from the Fyne event
// goroutine: it blocks until the dialog callback fires.
type FyneFileSelector struct {
	window fyne.Window
}

// NewFyneFileSelector creates a selector attached to the given window.
func NewFyneFileSelector(window fyne.Window) *FyneFileSelector {
	return &FyneFileSelector{window: window}
}

var _ services.FileSelector = (*FyneFileSelector)(nil)

// Select opens the picker and blocks until the user picks a file or
// dismisses the dialog. Dismissal yields ok=false with no error.
func (s *FyneFileSelector) Select() (string, bool, error) {
	result := make(chan fileSelection, 1)

	fyne.Do(func() {
		fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			result <- newFileSelection(reader, err)
		}, s.window)

		fileDialog.SetFilter(storage.NewExtensionFileFilter(services.SequenceFileExtensions))
		fileDialog.Show()
	})

	sel := <-result
	return sel.path, sel.ok, sel.err
}
