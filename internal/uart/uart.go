// Package uart provides string-oriented serial port I/O.
package uart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// ErrNoLine is returned when no complete line arrives before the timeout.
var ErrNoLine = errors.New("no line received")

// opener is swapped out in tests.
var opener = func(port string, baud int) (serial.Port, error) {
	return serial.Open(port, &serial.Mode{BaudRate: baud})
}

// Write sends data over the port and returns the number of bytes written.
func Write(port string, baud int, data string) (int, error) {
	p, err := opener(port, baud)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", port, err)
	}
	defer p.Close()

	n, err := p.Write([]byte(data))
	if err != nil {
		return n, fmt.Errorf("write %s: %w", port, err)
	}
	return n, nil
}

// Read receives up to length bytes within the timeout window.
func Read(port string, baud, length int, timeout time.Duration) ([]byte, error) {
	if length <= 0 {
		length = 256
	}

	p, err := opener(port, baud)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	defer p.Close()

	if err := p.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set timeout %s: %w", port, err)
	}

	buf := make([]byte, length)
	received := 0
	deadline := time.Now().Add(timeout)

	for received < length && time.Now().Before(deadline) {
		n, err := p.Read(buf[received:])
		if err != nil {
			return buf[:received], fmt.Errorf("read %s: %w", port, err)
		}
		if n == 0 {
			break // timeout
		}
		received += n
	}
	return buf[:received], nil
}

// ReadLine receives one newline-terminated line within the timeout.
// The returned line has trailing CR/LF stripped; the byte count
// includes them.
func ReadLine(port string, baud int, timeout time.Duration) (string, int, error) {
	p, err := opener(port, baud)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", port, err)
	}
	defer p.Close()

	deadline := time.Now().Add(timeout)
	var raw []byte
	one := make([]byte, 1)

	for time.Now().Before(deadline) {
		if err := p.SetReadTimeout(time.Until(deadline)); err != nil {
			return "", 0, fmt.Errorf("set timeout %s: %w", port, err)
		}
		n, err := p.Read(one)
		if err != nil {
			return "", len(raw), fmt.Errorf("read %s: %w", port, err)
		}
		if n == 0 {
			break // timeout
		}
		raw = append(raw, one[0])
		if one[0] == '\n' {
			break
		}
	}

	line := strings.TrimRight(string(raw), "\r\n")
	if line == "" {
		return "", len(raw), fmt.Errorf("%w within %s on %s", ErrNoLine, timeout, port)
	}
	return line, len(raw), nil
}
