//go:build !windows

package gui

// EnsureSingleInstance always succeeds off Windows. macOS handles this
// via app bundles and Linux users manage their own windows.
func EnsureSingleInstance() bool {
	return true
}
