// Package gui provides the graphical user interface for BioClick.
package gui

import (
	"fmt"
	"os"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"

	"github.com/bioclick/bioclick/internal/config"
	"github.com/bioclick/bioclick/internal/logging"
	"github.com/bioclick/bioclick/internal/services"
	"github.com/bioclick/bioclick/internal/version"
)

// Launch starts the GUI application and blocks until it exits.
func Launch(configFile string) error {
	logger := logging.NewLogger("gui")

	// GUI mode keeps the console quiet unless debugging is requested.
	if os.Getenv("BIOCLICK_DEBUG") != "" {
		logging.SetGlobalLevel(zerolog.DebugLevel)
		logger.Info().Msg("Debug logging enabled via BIOCLICK_DEBUG")
	} else {
		logging.SetGlobalLevel(zerolog.WarnLevel)
	}

	if runtime.GOOS == "linux" {
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return fmt.Errorf("GUI mode requires a display. No display detected.\n" +
				"DISPLAY and WAYLAND_DISPLAY are not set.\n" +
				"Use 'bioclick run' for CLI mode")
		}
	}

	if !EnsureSingleInstance() {
		logger.Warn().Msg("Another instance is already running")
		return nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	core, err := services.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	fyneApp := app.NewWithID("com.bioclick.app")
	window := fyneApp.NewWindow(fmt.Sprintf("BioClick %s", version.Version))

	var policy QuitPolicy = PlatformQuitPolicy{}
	if policy.QuitOnWindowClose() {
		window.SetMaster()
	} else {
		window.SetCloseIntercept(window.Hide)
	}

	mw := NewMainWindow(core, window)
	mw.Start()
	window.SetOnClosed(mw.Stop)

	window.SetContent(mw.Build())
	window.Resize(fyne.NewSize(800, 600))
	window.CenterOnScreen()
	window.ShowAndRun()

	return nil
}
