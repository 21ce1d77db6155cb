// Package lcd writes text to HD44780 displays behind a PCF8574 I2C
// backpack, the common 16x2/20x4 modules.
package lcd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PCF8574 bit assignments on the usual backpack wiring.
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08
)

// DDRAM start addresses per row.
var rowOffsets = [4]byte{0x00, 0x40, 0x14, 0x54}

var hostInit sync.Once

// openBus is swapped out in tests.
var openBus = func() (i2c.BusCloser, error) {
	var initErr error
	hostInit.Do(func() { _, initErr = host.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("init host: %w", initErr)
	}
	return i2creg.Open("")
}

// Screen is an open LCD connection.
type Screen struct {
	bus  i2c.BusCloser
	dev  *i2c.Dev
	cols int
	rows int
}

// Open connects to the display and runs the 4-bit init sequence.
func Open(addr uint16, cols, rows int) (*Screen, error) {
	if cols <= 0 {
		cols = 16
	}
	if rows <= 0 || rows > len(rowOffsets) {
		rows = 2
	}

	bus, err := openBus()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	s := &Screen{
		bus:  bus,
		dev:  &i2c.Dev{Addr: addr, Bus: bus},
		cols: cols,
		rows: rows,
	}
	if err := s.init4bit(); err != nil {
		bus.Close()
		return nil, err
	}
	return s, nil
}

// Print writes text to a 1-based line, truncated and padded to the
// line width. It returns the text as displayed, without padding.
func (s *Screen) Print(line int, text string) (string, error) {
	if line < 1 || line > s.rows {
		return "", fmt.Errorf("line must be 1-%d, got %d", s.rows, line)
	}

	display := text
	if len(display) > s.cols {
		display = display[:s.cols]
	}
	padded := display + strings.Repeat(" ", s.cols-len(display))

	if err := s.command(0x80 | rowOffsets[line-1]); err != nil {
		return "", err
	}
	for i := 0; i < len(padded); i++ {
		if err := s.writeByte(padded[i], bitRS); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(padded, " "), nil
}

// Clear erases the whole display.
func (s *Screen) Clear() error {
	if err := s.command(0x01); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

// Close releases the bus, leaving the display content in place.
func (s *Screen) Close() error {
	return s.bus.Close()
}

func (s *Screen) init4bit() error {
	time.Sleep(50 * time.Millisecond)

	// Force 8-bit mode three times, then switch to 4-bit.
	for _, nib := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := s.writeNibble(nib<<4, 0); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}

	for _, cmd := range []byte{
		0x28, // 4-bit, 2 lines, 5x8 font
		0x0C, // display on, cursor off
		0x06, // entry mode: increment, no shift
	} {
		if err := s.command(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *Screen) command(cmd byte) error {
	return s.writeByte(cmd, 0)
}

func (s *Screen) writeByte(b, flags byte) error {
	if err := s.writeNibble(b&0xF0, flags); err != nil {
		return err
	}
	return s.writeNibble((b<<4)&0xF0, flags)
}

func (s *Screen) writeNibble(nib, flags byte) error {
	data := nib | flags | bitBacklight
	for _, out := range []byte{data | bitEnable, data} {
		if err := s.dev.Tx([]byte{out}, nil); err != nil {
			return fmt.Errorf("i2c write: %w", err)
		}
		time.Sleep(50 * time.Microsecond)
	}
	return nil
}
