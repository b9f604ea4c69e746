package actuator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedTrigger(t *testing.T) {
	a := NewSimulated(nil)
	start := time.Now()
	require.NoError(t, a.Trigger(2*time.Second))
	// The simulated hold is capped, long rewards must not block commands.
	assert.Less(t, time.Since(start), time.Second)
}

func TestGPIOFallsBackWhenPinMissing(t *testing.T) {
	old := sysfsGPIORoot
	sysfsGPIORoot = filepath.Join(t.TempDir(), "gpio")
	defer func() { sysfsGPIORoot = old }()

	g := NewGPIO(17, nil)
	assert.False(t, g.Available())
	assert.NoError(t, g.Trigger(10*time.Millisecond))
}

func TestGPIOTriggerWritesPin(t *testing.T) {
	old := sysfsGPIORoot
	root := t.TempDir()
	sysfsGPIORoot = root
	defer func() { sysfsGPIORoot = old }()

	pinDir := filepath.Join(root, "gpio17")
	require.NoError(t, os.MkdirAll(pinDir, 0o755))
	valuePath := filepath.Join(pinDir, "value")
	require.NoError(t, os.WriteFile(valuePath, []byte("0"), 0o644))

	g := NewGPIO(17, nil)
	require.True(t, g.Available())
	require.NoError(t, g.Trigger(time.Millisecond))

	data, err := os.ReadFile(valuePath)
	require.NoError(t, err)
	assert.Equal(t, "0", string(data), "pin must be released after the trigger")
}
