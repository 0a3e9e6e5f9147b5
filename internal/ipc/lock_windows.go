//go:build windows

// Package ipc provides the single-instance guard and worker/shell
// control-message transport named in spec §6's external-interfaces
// list (single-instance IPC, thin glue per spec §1).
package ipc

import (
	"errors"
	"syscall"
	"unsafe"
)

var (
	kernel32ipc = syscall.NewLazyDLL("kernel32.dll")

	procCreateMutexW = kernel32ipc.NewProc("CreateMutexW")
	procReleaseMutex = kernel32ipc.NewProc("ReleaseMutex")
	procCloseHandle  = kernel32ipc.NewProc("CloseHandle")
)

const errorAlreadyExists = 183

// ErrAlreadyRunning means another instance holds the named mutex.
var ErrAlreadyRunning = errors.New("ipc: another instance is already running")

// InstanceLock is a process-wide named mutex used to enforce a single
// running shell (spec §1: "single-instance IPC").
type InstanceLock struct {
	handle uintptr
}

// AcquireInstanceLock creates (or detects) the named mutex "autoapprove".
// Returns ErrAlreadyRunning if another process already holds it.
func AcquireInstanceLock(name string) (*InstanceLock, error) {
	namePtr, err := syscall.UTF16PtrFromString(`Local\` + name)
	if err != nil {
		return nil, err
	}

	h, _, callErr := procCreateMutexW.Call(0, 1, uintptr(unsafe.Pointer(namePtr)))
	if h == 0 {
		return nil, callErr
	}
	if callErr == syscall.Errno(errorAlreadyExists) {
		procCloseHandle.Call(h)
		return nil, ErrAlreadyRunning
	}
	return &InstanceLock{handle: h}, nil
}

// Release frees the mutex, allowing a future instance to acquire it.
func (l *InstanceLock) Release() {
	if l == nil || l.handle == 0 {
		return
	}
	procReleaseMutex.Call(l.handle)
	procCloseHandle.Call(l.handle)
	l.handle = 0
}
