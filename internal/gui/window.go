package gui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/bioclick/bioclick/internal/events"
	"github.com/bioclick/bioclick/internal/models"
	"github.com/bioclick/bioclick/internal/services"
)

// maxLogRunes caps the in-window log so a chatty engine cannot grow the
// widget without bound; older text is trimmed from the front.
const maxLogRunes = 64 * 1024

// backend labels shown in the radio group.
const (
	backendLocalLabel  = "Local engine"
	backendRemoteLabel = "Remote server"
)

// MainWindow is the single-screen UI: pick a file, pick a program and
// backend, run, watch the stream.
type MainWindow struct {
	app      *services.App
	window   fyne.Window
	selector services.FileSelector

	selectedPath string

	fileLabel   *widget.Label
	fileButton  *widget.Button
	typeSelect  *widget.Select
	backendPick *widget.RadioGroup
	runButton   *widget.Button
	logView     *widget.Entry
	statusLabel *widget.Label

	sub *events.Subscription
}

// NewMainWindow builds the UI for the given window.
func NewMainWindow(app *services.App, window fyne.Window) *MainWindow {
	mw := &MainWindow{
		app:      app,
		window:   window,
		selector: NewFyneFileSelector(window),
	}

	mw.fileLabel = widget.NewLabel("No file selected")
	mw.fileButton = widget.NewButton("Select Sequence File...", mw.onSelectFile)

	types := make([]string, 0, len(models.SupportedBlastTypes()))
	for _, bt := range models.SupportedBlastTypes() {
		types = append(types, string(bt))
	}
	mw.typeSelect = widget.NewSelect(types, nil)
	mw.typeSelect.SetSelected(string(models.BlastN))

	mw.backendPick = widget.NewRadioGroup([]string{backendLocalLabel, backendRemoteLabel}, nil)
	mw.backendPick.Horizontal = true
	mw.backendPick.SetSelected(backendLocalLabel)

	mw.runButton = widget.NewButton("Run BLAST", mw.onRun)

	mw.logView = widget.NewMultiLineEntry()
	mw.logView.Wrapping = fyne.TextWrapWord

	mw.statusLabel = widget.NewLabel("Ready")

	return mw
}

// Build assembles the window layout.
func (mw *MainWindow) Build() fyne.CanvasObject {
	controls := container.NewVBox(
		container.NewHBox(mw.fileButton, mw.fileLabel),
		container.NewHBox(widget.NewLabel("Program:"), mw.typeSelect, widget.NewLabel("Backend:"), mw.backendPick),
		mw.runButton,
	)
	return container.NewBorder(controls, mw.statusLabel, nil, nil, mw.logView)
}

// Start subscribes to the event bus for the lifetime of the window. The
// single subscription is released in Stop, so repeated runs never stack
// up listeners.
func (mw *MainWindow) Start() {
	mw.sub = mw.app.Bus.Subscribe()
	go mw.consumeEvents()
}

// Stop releases the event subscription, ending the consumer goroutine.
func (mw *MainWindow) Stop() {
	if mw.sub != nil {
		mw.sub.Unsubscribe()
	}
}

func (mw *MainWindow) consumeEvents() {
	for ev := range mw.sub.C {
		switch e := ev.(type) {
		case *events.OutputChunkEvent:
			mw.appendLog(e.Text)
		case *events.ErrorChunkEvent:
			mw.appendLog(e.Text)
		case *events.StateChangeEvent:
			mw.setStatus(fmt.Sprintf("%s: %s", e.JobName, e.NewState))
		case *events.CompletedEvent:
			status := fmt.Sprintf("Completed (exit code %d)", e.ExitCode)
			if e.ArtifactPath != "" {
				status = "Completed, result saved to " + e.ArtifactPath
			}
			mw.onTerminal(status)
		case *events.FailedEvent:
			mw.onTerminal("Failed: " + e.Reason)
		}
	}
}

func (mw *MainWindow) appendLog(text string) {
	fyne.Do(func() {
		combined := mw.logView.Text + text
		if over := len([]rune(combined)) - maxLogRunes; over > 0 {
			runes := []rune(combined)
			combined = string(runes[over:])
		}
		mw.logView.SetText(combined)
		mw.logView.CursorRow = strings.Count(combined, "\n")
	})
}

func (mw *MainWindow) setStatus(text string) {
	fyne.Do(func() {
		mw.statusLabel.SetText(text)
	})
}

func (mw *MainWindow) onTerminal(status string) {
	fyne.Do(func() {
		mw.statusLabel.SetText(status)
		mw.runButton.Enable()
	})
}

// onSelectFile runs the blocking picker off the event goroutine.
func (mw *MainWindow) onSelectFile() {
	go func() {
		path, ok, err := mw.selector.Select()
		if err != nil {
			fyne.Do(func() { dialog.ShowError(err, mw.window) })
			return
		}
		if !ok {
			return
		}
		fyne.Do(func() {
			mw.selectedPath = path
			mw.fileLabel.SetText(filepath.Base(path))
		})
	}()
}

func (mw *MainWindow) onRun() {
	kind := models.JobKindLocal
	if mw.backendPick.Selected == backendRemoteLabel {
		kind = models.JobKindRemote
	}
	req := models.JobRequest{
		InputPath: mw.selectedPath,
		Kind:      kind,
		BlastType: models.BlastType(mw.typeSelect.Selected),
	}

	mw.runButton.Disable()
	mw.logView.SetText("")
	mw.statusLabel.SetText("Dispatching...")

	go func() {
		job, err := mw.app.Dispatcher.Dispatch(context.Background(), req)
		if err != nil {
			fyne.Do(func() {
				dialog.ShowError(err, mw.window)
				mw.statusLabel.SetText("Ready")
				mw.runButton.Enable()
			})
			return
		}
		mw.app.Logger.Info().Str("job_id", job.ID).Msg("Job dispatched from GUI")
	}()
}
