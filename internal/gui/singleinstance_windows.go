//go:build windows

package gui

import (
	"golang.org/x/sys/windows"
)

const mutexName = "BioClickGUI_SingleInstance_v1"

// singleInstanceMutex holds the mutex handle for the process lifetime.
var singleInstanceMutex windows.Handle

// EnsureSingleInstance reports whether this is the only running GUI
// instance, using a named mutex.
func EnsureSingleInstance() bool {
	name, err := windows.UTF16PtrFromString(mutexName)
	if err != nil {
		return true
	}

	handle, err := windows.CreateMutex(nil, false, name)
	if handle == 0 {
		return false
	}
	if err == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(handle)
		return false
	}

	singleInstanceMutex = handle
	return true
}
