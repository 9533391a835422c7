package hook

import (
	"sync"

	"github.com/weavert/weave/internal/gid"
)

var (
	enabledMu sync.Mutex
	enabled   = map[uint64]bool{}
)

// Enable turns hooking on for the calling goroutine-thread. Off by
// default.
func Enable() {
	enabledMu.Lock()
	enabled[gid.Current()] = true
	enabledMu.Unlock()
}

// Disable turns hooking off for the calling goroutine-thread.
func Disable() {
	enabledMu.Lock()
	delete(enabled, gid.Current())
	enabledMu.Unlock()
}

// IsEnabled reports whether hooking is on for the calling goroutine-thread.
func IsEnabled() bool {
	enabledMu.Lock()
	defer enabledMu.Unlock()
	return enabled[gid.Current()]
}
