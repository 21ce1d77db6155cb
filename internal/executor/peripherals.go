package executor

import (
	"time"

	"github.com/openclaw/gpioskill/internal/lcd"
	"github.com/openclaw/gpioskill/internal/sequence"
	"github.com/openclaw/gpioskill/internal/uart"
)

func (e *Executor) lcdArgs(payload map[string]any) (addr uint16, cols, rows int, fail sequence.Result) {
	mode := stringArg(payload, "mode", "i2c")
	if mode != "i2c" {
		return 0, 0, 0, failuref("lcd mode '%s' is not supported; wire the display through a PCF8574 I2C backpack", mode)
	}

	addrInt, err := intArg(payload, "i2c_address", e.cfg.LCDAddress)
	if err != nil {
		return 0, 0, 0, sequence.Failure(err.Error())
	}
	cols, err = intArg(payload, "cols", 16)
	if err != nil {
		return 0, 0, 0, sequence.Failure(err.Error())
	}
	rows, err = intArg(payload, "rows", 2)
	if err != nil {
		return 0, 0, 0, sequence.Failure(err.Error())
	}
	return uint16(addrInt), cols, rows, nil
}

func (e *Executor) lcdPrint(payload map[string]any) sequence.Result {
	text, ok := payload["text"]
	if !ok || text == nil {
		return sequence.Failure("lcd_print requires: text")
	}
	line, err := intArg(payload, "line", 1)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	addr, cols, rows, fail := e.lcdArgs(payload)
	if fail != nil {
		return fail
	}

	screen, err := lcd.Open(addr, cols, rows)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	defer screen.Close()

	displayed, err := screen.Print(line, coerceString(text))
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success": true,
		"mode":    "i2c",
		"line":    line,
		"cols":    cols,
		"rows":    rows,
		"text":    displayed,
	}
}

func (e *Executor) lcdClear(payload map[string]any) sequence.Result {
	addr, cols, rows, fail := e.lcdArgs(payload)
	if fail != nil {
		return fail
	}

	screen, err := lcd.Open(addr, cols, rows)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	defer screen.Close()

	if err := screen.Clear(); err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{"success": true, "mode": "i2c"}
}

func (e *Executor) serialArgs(payload map[string]any) (port string, baud int, fail sequence.Result) {
	port = stringArg(payload, "port", e.cfg.SerialPort)
	baud, err := intArg(payload, "baud", e.cfg.SerialBaud)
	if err != nil {
		return "", 0, sequence.Failure(err.Error())
	}
	return port, baud, nil
}

func (e *Executor) serialWrite(payload map[string]any) sequence.Result {
	data, ok := payload["data"]
	if !ok || data == nil {
		return sequence.Failure("serial_write requires: data")
	}

	port, baud, fail := e.serialArgs(payload)
	if fail != nil {
		return fail
	}

	text := coerceString(data)
	sent, err := uart.Write(port, baud, text)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":    true,
		"port":       port,
		"baud":       baud,
		"bytes_sent": sent,
		"data":       text,
	}
}

func (e *Executor) serialRead(payload map[string]any) sequence.Result {
	port, baud, fail := e.serialArgs(payload)
	if fail != nil {
		return fail
	}
	length, err := intArg(payload, "length", 256)
	if err != nil {
		return sequence.Failure(err.Error())
	}
	timeoutS, err := floatArg(payload, "timeout_s", 2.0)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	raw, err := uart.Read(port, baud, length, time.Duration(timeoutS*float64(time.Second)))
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":        true,
		"port":           port,
		"baud":           baud,
		"bytes_received": len(raw),
		"data":           string(raw),
	}
}

func (e *Executor) serialReadLine(payload map[string]any) sequence.Result {
	port, baud, fail := e.serialArgs(payload)
	if fail != nil {
		return fail
	}
	timeoutS, err := floatArg(payload, "timeout_s", 5.0)
	if err != nil {
		return sequence.Failure(err.Error())
	}

	line, received, err := uart.ReadLine(port, baud, time.Duration(timeoutS*float64(time.Second)))
	if err != nil {
		return sequence.Failure(err.Error())
	}
	return sequence.Result{
		"success":        true,
		"port":           port,
		"baud":           baud,
		"data":           line,
		"bytes_received": received,
	}
}
