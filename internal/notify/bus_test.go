package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFromProc(t *testing.T) {
	value, err := envFromProc("/proc", os.Getpid(), "PATH")
	if !assert.NoError(t, err, "Should be able to read PATH from current process") {
		return
	}
	assert.Equal(t, os.Getenv("PATH"), value, "Value from /proc should match os.Getenv")

	_, err = envFromProc("/proc", os.Getpid(), "NONEXISTENT_VARIABLE_THAT_SHOULD_NOT_EXIST")
	assert.ErrorContains(t, err, "not found")

	_, err = envFromProc("/proc", 999999999, "PATH")
	assert.Error(t, err, "Should return error for invalid PID")
}

func writeEnviron(t *testing.T, root, pid, content string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "environ"), []byte(content), 0o600))
}

func TestFindBusAddress(t *testing.T) {
	root := t.TempDir()
	writeEnviron(t, root, "self", "DBUS_SESSION_BUS_ADDRESS=unix:path=/wrong\x00")
	writeEnviron(t, root, "120", "USER=alice\x00HOME=/home/alice\x00")
	writeEnviron(t, root, "130", "USER=alice\x00DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/1000/bus\x00")

	addr, err := findBusAddress(root, os.Getuid())
	require.NoError(t, err)
	assert.Equal(t, "unix:path=/run/user/1000/bus", addr)

	_, err = findBusAddress(root, os.Getuid()+1)
	assert.Error(t, err)

	_, err = findBusAddress(filepath.Join(root, "missing"), os.Getuid())
	assert.Error(t, err)
}

func TestScanNullTerminated(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		atEOF   bool
		wantAdv int
		wantTok []byte
	}{
		{"single", []byte("FOO=bar\x00"), false, 8, []byte("FOO=bar")},
		{"multiple", []byte("FOO=bar\x00BAZ=qux\x00"), false, 8, []byte("FOO=bar")},
		{"eof without terminator", []byte("FOO=bar"), true, 7, []byte("FOO=bar")},
		{"eof empty", []byte{}, true, 0, nil},
		{"need more", []byte("FOO=bar"), false, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv, tok, err := scanNullTerminated(tt.input, tt.atEOF)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAdv, adv)
			assert.Equal(t, tt.wantTok, tok)
		})
	}
}
