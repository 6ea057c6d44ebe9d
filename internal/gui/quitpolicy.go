package gui

import "runtime"

// QuitPolicy decides whether closing the main window exits the
// application. It replaces scattered platform checks at the call sites;
// the platform decision lives in exactly one place and tests can
// substitute their own policy.
type QuitPolicy interface {
	QuitOnWindowClose() bool
}

// PlatformQuitPolicy is the default: every platform quits on window
// close except macOS, where apps conventionally stay resident until
// quit explicitly.
type PlatformQuitPolicy struct{}

func (PlatformQuitPolicy) QuitOnWindowClose() bool {
	return runtime.GOOS != "darwin"
}
