// Package actuator abstracts the reward dispenser hardware.
package actuator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vctlabs/vct/pkg/logging"
)

// Actuator triggers the reward dispenser for a duration.
type Actuator interface {
	Trigger(d time.Duration) error
}

// maxSimulatedHold caps how long the simulated actuator actually blocks.
const maxSimulatedHold = 50 * time.Millisecond

// Simulated logs the trigger instead of driving hardware.
type Simulated struct {
	log *slog.Logger
}

// NewSimulated creates a simulated actuator. A nil logger discards output.
func NewSimulated(log *slog.Logger) *Simulated {
	if log == nil {
		log = logging.Nop()
	}
	return &Simulated{log: log}
}

// Trigger logs the dispense and briefly pauses to mimic hardware latency.
func (s *Simulated) Trigger(d time.Duration) error {
	s.log.Info("simulated reward dispensed", "duration", d.String())
	hold := d
	if hold > maxSimulatedHold {
		hold = maxSimulatedHold
	}
	time.Sleep(hold)
	return nil
}

// sysfsGPIORoot is the base path for the kernel GPIO interface.
// Overridable in tests.
var sysfsGPIORoot = "/sys/class/gpio"

// GPIO drives a reward dispenser through a sysfs GPIO pin. When the pin is
// unavailable the actuator degrades to simulated behavior instead of
// failing the command.
type GPIO struct {
	pin       int
	available bool
	valuePath string
	log       *slog.Logger
	fallback  *Simulated
}

// NewGPIO creates a GPIO actuator for the given pin, exporting it if needed.
func NewGPIO(pin int, log *slog.Logger) *GPIO {
	if log == nil {
		log = logging.Nop()
	}
	g := &GPIO{
		pin:      pin,
		log:      log,
		fallback: NewSimulated(log),
	}

	valuePath := filepath.Join(sysfsGPIORoot, fmt.Sprintf("gpio%d", pin), "value")
	if _, err := os.Stat(valuePath); err != nil {
		exportPath := filepath.Join(sysfsGPIORoot, "export")
		if werr := os.WriteFile(exportPath, []byte(strconv.Itoa(pin)), 0o200); werr != nil {
			log.Warn("GPIO pin unavailable, falling back to simulated actuator",
				"pin", pin, "error", werr)
			return g
		}
		if _, err := os.Stat(valuePath); err != nil {
			log.Warn("GPIO pin did not appear after export, falling back to simulated actuator",
				"pin", pin, "error", err)
			return g
		}
	}

	g.valuePath = valuePath
	g.available = true
	return g
}

// Available reports whether the hardware pin is usable.
func (g *GPIO) Available() bool { return g.available }

// Trigger holds the pin high for the duration, then releases it.
func (g *GPIO) Trigger(d time.Duration) error {
	if !g.available {
		return g.fallback.Trigger(d)
	}
	if err := os.WriteFile(g.valuePath, []byte("1"), 0o200); err != nil {
		return fmt.Errorf("failed to raise GPIO pin %d: %w", g.pin, err)
	}
	time.Sleep(d)
	if err := os.WriteFile(g.valuePath, []byte("0"), 0o200); err != nil {
		return fmt.Errorf("failed to lower GPIO pin %d: %w", g.pin, err)
	}
	return nil
}
