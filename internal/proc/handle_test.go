package proc

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAliveSelf(t *testing.T) {
	require.True(t, Handle{PID: os.Getpid()}.IsAlive())
}

func TestIsAliveAfterExit(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	require.False(t, Handle{PID: cmd.Process.Pid}.IsAlive())
}

func TestIsAliveInvalidPID(t *testing.T) {
	require.False(t, Handle{PID: 0}.IsAlive())
	require.False(t, Handle{PID: -1}.IsAlive())
}

func TestSignalDeadProcessIsNotAnError(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	h := Handle{PID: cmd.Process.Pid}
	require.NoError(t, h.Terminate())
	require.NoError(t, h.Kill())
}

func TestCommandLineSelf(t *testing.T) {
	h := Handle{PID: os.Getpid()}
	require.Contains(t, h.CommandLine(), filepath.Base(os.Args[0]))
	require.True(t, h.CommandLineMatches(filepath.Base(os.Args[0])))
	require.False(t, h.CommandLineMatches("definitely-not-in-the-argv"))
	require.False(t, h.CommandLineMatches(""))
}

func TestCommandLineGoneProcess(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	require.Equal(t, "", Handle{PID: cmd.Process.Pid}.CommandLine())
}
