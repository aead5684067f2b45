// Package runtimeEnv handles the bits of process lifecycle that sit
// outside statsgod's own domain logic: dropping root privileges after
// binding a low UDP port, and telling systemd the daemon has finished
// starting up.
package runtimeEnv

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"github.com/cc-metrics/statsgod/internal/statsdlog"
)

// DropPrivileges changes the process's group then user to the ones named,
// in that order (group first, since changing uid away from root usually
// forfeits the ability to change gid afterward). cmd/statsgod does not call
// it: the daemon keeps the user and group it was started with.
func DropPrivileges(username, group string) error {
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			statsdlog.Warnf("runtimeEnv: looking up group %q: %v", group, err)
			return err
		}

		gid, _ := strconv.Atoi(g.Gid)
		if err := syscall.Setgid(gid); err != nil {
			statsdlog.Warnf("runtimeEnv: setgid %d: %v", gid, err)
			return err
		}
	}

	if username != "" {
		u, err := user.Lookup(username)
		if err != nil {
			statsdlog.Warnf("runtimeEnv: looking up user %q: %v", username, err)
			return err
		}

		uid, _ := strconv.Atoi(u.Uid)
		if err := syscall.Setuid(uid); err != nil {
			statsdlog.Warnf("runtimeEnv: setuid %d: %v", uid, err)
			return err
		}
	}

	return nil
}

// SystemdNotify tells systemd the daemon is ready (or conveys a status
// string), a no-op outside a systemd-managed service since NOTIFY_SOCKET
// is unset in that case.
// https://www.freedesktop.org/software/systemd/man/sd_notify.html
func SystemdNotify(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	cmd := exec.Command("systemd-notify", args...)
	_ = cmd.Run() // nothing useful to do if systemd-notify itself is missing
}
