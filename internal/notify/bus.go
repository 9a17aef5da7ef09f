package notify

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/godbus/dbus/v5"
)

const busAddressEnv = "DBUS_SESSION_BUS_ADDRESS"

// connectSessionBus connects to the session bus. When the environment does
// not name one, the address is borrowed from another process of the same
// user.
func connectSessionBus() (*dbus.Conn, error) {
	if os.Getenv(busAddressEnv) != "" {
		return dbus.ConnectSessionBus()
	}
	addr, err := findBusAddress("/proc", os.Getuid())
	if err != nil {
		return nil, err
	}
	return dbus.Connect(addr)
}

// findBusAddress scans procRoot for a process owned by uid that has a
// session bus address in its environment.
func findBusAddress(procRoot string, uid int) (string, error) {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", procRoot, err)
	}
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || !e.IsDir() {
			continue
		}
		if owner, ok := ownerOf(filepath.Join(procRoot, e.Name())); !ok || owner != uid {
			continue
		}
		if addr, err := envFromProc(procRoot, pid, busAddressEnv); err == nil && addr != "" {
			return addr, nil
		}
	}
	return "", fmt.Errorf("no process of uid %d exposes %s", uid, busAddressEnv)
}

// envFromProc reads an environment variable from <procRoot>/<pid>/environ
func envFromProc(procRoot string, pid int, envVar string) (string, error) {
	path := filepath.Join(procRoot, strconv.Itoa(pid), "environ")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	// environ holds null-separated key=value pairs
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Split(scanNullTerminated)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, envVar+"=") {
			return strings.TrimPrefix(line, envVar+"="), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error scanning environ: %w", err)
	}
	return "", fmt.Errorf("environment variable %s not found", envVar)
}

func scanNullTerminated(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return i + 1, data[0:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func ownerOf(path string) (int, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return int(st.Uid), true
}
