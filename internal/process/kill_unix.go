//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chromium's renderer and GPU children down with the browser.
// Non-positive pids are ignored: -0 would signal our own group.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort; launcher.Kill has already signalled the leader
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
