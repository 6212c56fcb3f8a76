// Package ws0010 controls a WS0010 (HD44780 compatible) character display
// over a parallel 4-bit or 8-bit GPIO bus.
//
// See the examples for how to use this package.
package ws0010

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/display"
)

var (
	// ErrInvalidArgument is returned when the configuration or the bus is
	// not usable. Nothing is sent to the controller in that case.
	ErrInvalidArgument = errors.New("ws0010: invalid argument")

	// ErrOutOfRange is returned for addresses and cursor positions outside
	// the controller's DDRAM.
	ErrOutOfRange = errors.New("ws0010: out of range")

	// ErrBusy is returned when busy polling is enabled and the controller
	// keeps the busy flag raised.
	ErrBusy = errors.New("ws0010: busy flag timeout")
)

// BusWidth is the interface data length (DL).
type BusWidth byte

const (
	Bus8Bit BusWidth = iota // D0-D7, one transfer per byte
	Bus4Bit                 // D4-D7, high nibble then low nibble
)

// String returns the bus width as "8-bit" or "4-bit".
func (w BusWidth) String() string {
	switch w {
	case Bus8Bit:
		return "8-bit"
	case Bus4Bit:
		return "4-bit"
	}
	return fmt.Sprintf("BusWidth(%d)", byte(w))
}

// Font is the character font size (F).
type Font byte

const (
	Font5x8  Font = iota // 5x8 dots
	Font5x10             // 5x10 dots
)

// Alphabet selects one of the character ROM tables (FT1:FT0).
type Alphabet byte

const (
	EnglishJapanese  Alphabet = iota // FT=00
	WesternEuropean1                 // FT=01
	WesternEuropean2                 // FT=10
	EnglishRussian                   // FT=11
)

// Command opcodes.
const (
	cmdClear          byte = 0x01
	cmdHome           byte = 0x02
	cmdEntryMode      byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdShift          byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetDDRAMAddr   byte = 0x80
)

// Entry mode bits.
const (
	entryIncrement byte = 0x02
	entryShift     byte = 0x01
)

// Display control bits.
const (
	displayOn byte = 0x04
	cursorOn  byte = 0x02
	blinkOn   byte = 0x01
)

// Cursor/display shift bits.
const (
	shiftDisplay byte = 0x08
	shiftRight   byte = 0x04
)

// Function set bits; the low two bits carry the Alphabet.
const (
	function8Bit   byte = 0x10
	function2Lines byte = 0x08
	function5x10   byte = 0x04
)

// Settle times after each command class.
const (
	powerOnDelay     = 50000 * time.Microsecond
	functionSetDelay = 4500 * time.Microsecond
	displayCtrlDelay = 4500 * time.Microsecond
	clearDelay       = 7000 * time.Microsecond
	homeDelay        = 2000 * time.Microsecond
)

// DDRAM layout.
const (
	maxDDRAMAddr  = 0x7F
	line1Addr     = 0x00
	line2Addr     = 0x40
	maxColsTwo    = 40
	maxColsSingle = 80
)

// Opts is the configuration for the display.
type Opts struct {
	Lines    int      // Number of lines, 1 or 2
	Cols     int      // Visible characters per line (default: 16, ≤40, ≤80 on one line)
	Font     Font     // Character font
	Width    BusWidth // Interface data length
	Alphabet Alphabet // Character ROM table

	// BusyPoll makes the driver wait for the busy flag to clear before
	// each transfer. The bus must implement BusyReader.
	BusyPoll bool
}

// DefaultOpts is used when New is called with nil options.
var DefaultOpts = Opts{
	Lines:    2,
	Cols:     16,
	Font:     Font5x8,
	Width:    Bus8Bit,
	Alphabet: EnglishJapanese,
}

// Dev is the device handle for the display.
//
// A Dev is not safe for concurrent use and owns its bus exclusively.
type Dev struct {
	bus Bus

	// Configuration
	lines    int
	cols     int
	font     Font
	width    BusWidth
	alphabet Alphabet
	busyPoll bool

	// Set once Function Set went out; the busy flag is undefined before.
	configured bool

	// Last byte sent for each command family, without the opcode.
	entryMode      byte
	displayControl byte
	functionSet    byte
}

// New returns an initialized display on bus.
//
// opts can be nil to use DefaultOpts.
func New(bus Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := validate(bus, opts); err != nil {
		return nil, err
	}

	d := &Dev{
		bus:      bus,
		lines:    opts.Lines,
		cols:     opts.Cols,
		font:     opts.Font,
		width:    opts.Width,
		alphabet: opts.Alphabet,
		busyPoll: opts.BusyPoll,
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

func validate(bus Bus, opts *Opts) error {
	if bus == nil {
		return fmt.Errorf("%w: nil bus", ErrInvalidArgument)
	}
	if opts.Lines != 1 && opts.Lines != 2 {
		return fmt.Errorf("%w: lines must be 1 or 2, got %d", ErrInvalidArgument, opts.Lines)
	}
	maxCols := maxColsTwo
	if opts.Lines == 1 {
		maxCols = maxColsSingle
	}
	if opts.Cols <= 0 || opts.Cols > maxCols {
		return fmt.Errorf("%w: cols must be between 1 and %d, got %d", ErrInvalidArgument, maxCols, opts.Cols)
	}
	if _, err := functionSetBits(opts.Width, opts.Lines, opts.Font, opts.Alphabet); err != nil {
		return err
	}
	if opts.BusyPoll {
		if _, ok := bus.(BusyReader); !ok {
			return fmt.Errorf("%w: busy polling needs a BusyReader bus", ErrInvalidArgument)
		}
	}
	return nil
}

// functionSetBits encodes the Function Set payload:
// DL(bit4) N(bit3) F(bit2) FT1:FT0(bits1:0).
func functionSetBits(w BusWidth, lines int, f Font, a Alphabet) (byte, error) {
	var b byte
	switch w {
	case Bus8Bit:
		b |= function8Bit
	case Bus4Bit:
	default:
		return 0, fmt.Errorf("%w: bus width %d", ErrInvalidArgument, w)
	}
	switch lines {
	case 1:
	case 2:
		b |= function2Lines
	default:
		return 0, fmt.Errorf("%w: lines must be 1 or 2, got %d", ErrInvalidArgument, lines)
	}
	switch f {
	case Font5x8:
	case Font5x10:
		b |= function5x10
	default:
		return 0, fmt.Errorf("%w: font %d", ErrInvalidArgument, f)
	}
	if a > EnglishRussian {
		return 0, fmt.Errorf("%w: alphabet %d", ErrInvalidArgument, a)
	}
	return b | byte(a), nil
}

// Init runs the power-on configuration sequence. It is called by New and can
// be called again to bring a display back after a failed operation.
func (d *Dev) Init() error {
	fs, err := functionSetBits(d.width, d.lines, d.font, d.alphabet)
	if err != nil {
		return err
	}
	if glog.V(1) {
		glog.Infof("ws0010: init %s function set 0x%02X", d, cmdFunctionSet|fs)
	}

	// Wait for power stabilization
	d.bus.Delay(powerOnDelay)

	d.configured = false
	d.functionSet = fs
	if err := d.sendCommand(cmdFunctionSet | d.functionSet); err != nil {
		return err
	}
	d.configured = true
	d.bus.Delay(functionSetDelay)

	d.displayControl = displayOn
	if err := d.sendCommand(cmdDisplayControl | d.displayControl); err != nil {
		return err
	}
	d.bus.Delay(displayCtrlDelay)

	if err := d.Clear(); err != nil {
		return err
	}
	return d.SetEntryMode(true, false)
}

// Clear fills DDRAM with spaces and moves the cursor to address 0.
func (d *Dev) Clear() error {
	err := d.sendCommand(cmdClear)
	d.bus.Delay(clearDelay)
	return err
}

// Home sets the address counter to 0 and undoes any display shift.
func (d *Dev) Home() error {
	err := d.sendCommand(cmdHome)
	d.bus.Delay(homeDelay)
	return err
}

// SetEntryMode sets the cursor move direction and whether the display shifts
// on each write.
func (d *Dev) SetEntryMode(increment, shift bool) error {
	var b byte
	if increment {
		b |= entryIncrement
	}
	if shift {
		b |= entryShift
	}
	d.entryMode = b
	return d.sendCommand(cmdEntryMode | d.entryMode)
}

// DisplayOn turns the display on.
func (d *Dev) DisplayOn() error { return d.setDisplayControl(displayOn, true) }

// DisplayOff turns the display off. DDRAM content is kept.
func (d *Dev) DisplayOff() error { return d.setDisplayControl(displayOn, false) }

// CursorOn shows the cursor.
func (d *Dev) CursorOn() error { return d.setDisplayControl(cursorOn, true) }

// CursorOff hides the cursor.
func (d *Dev) CursorOff() error { return d.setDisplayControl(cursorOn, false) }

// BlinkOn makes the character at the cursor blink.
func (d *Dev) BlinkOn() error { return d.setDisplayControl(blinkOn, true) }

// BlinkOff stops blinking.
func (d *Dev) BlinkOff() error { return d.setDisplayControl(blinkOn, false) }

// setDisplayControl updates one bit of the cached display control byte and
// resends the whole byte.
func (d *Dev) setDisplayControl(bit byte, on bool) error {
	if on {
		d.displayControl |= bit
	} else {
		d.displayControl &^= bit
	}
	return d.sendCommand(cmdDisplayControl | d.displayControl)
}

// ShiftCursor moves the cursor one position without changing DDRAM.
func (d *Dev) ShiftCursor(right bool) error {
	return d.shift(0, right)
}

// ShiftDisplay shifts the whole display one position.
func (d *Dev) ShiftDisplay(right bool) error {
	return d.shift(shiftDisplay, right)
}

func (d *Dev) shift(target byte, right bool) error {
	b := cmdShift | target
	if right {
		b |= shiftRight
	}
	return d.sendCommand(b)
}

// SetDDRAMAddress sets the address of the next character write.
func (d *Dev) SetDDRAMAddress(addr byte) error {
	if addr > maxDDRAMAddr {
		return fmt.Errorf("%w: DDRAM address 0x%02X > 0x%02X", ErrOutOfRange, addr, maxDDRAMAddr)
	}
	return d.sendCommand(cmdSetDDRAMAddr | addr)
}

// SetCursor moves the cursor to col on row, both 0-based. Columns past the
// visible width are valid and can be brought into view with ShiftDisplay.
func (d *Dev) SetCursor(row, col int) error {
	maxCols := maxColsTwo
	if d.lines == 1 {
		maxCols = maxColsSingle
	}
	if row < 0 || row >= d.lines || col < 0 || col >= maxCols {
		return fmt.Errorf("%w: cursor (%d,%d) on %d lines", ErrOutOfRange, row, col, d.lines)
	}
	base := line1Addr
	if row == 1 {
		base = line2Addr
	}
	return d.SetDDRAMAddress(byte(base + col))
}

// Print sends every byte of p as character data. A failed byte does not stop
// the transfer; the returned error joins every failure.
func (d *Dev) Print(p []byte) error {
	var errs []error
	for _, b := range p {
		if err := d.sendData(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Write sends p as character data and stops at the first failed byte.
func (d *Dev) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.sendData(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteString sends s as character data.
func (d *Dev) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

// Halt turns the display off.
func (d *Dev) Halt() error {
	return d.DisplayOff()
}

// Lines returns the configured number of lines.
func (d *Dev) Lines() int {
	return d.lines
}

// Cols returns the visible characters per line.
func (d *Dev) Cols() int {
	return d.cols
}

// Rows returns the number of lines, like Lines.
func (d *Dev) Rows() int {
	return d.lines
}

// MinRow returns the first row index accepted by MoveTo.
func (d *Dev) MinRow() int {
	return 0
}

// MinCol returns the first column index accepted by MoveTo.
func (d *Dev) MinCol() int {
	return 0
}

// MoveTo moves the cursor to col on row, both 0-based. See SetCursor.
func (d *Dev) MoveTo(row, col int) error {
	return d.SetCursor(row, col)
}

// Move shifts the cursor one position forward or backward. Up and down are
// not supported by the controller.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Forward:
		return d.ShiftCursor(true)
	case display.Backward:
		return d.ShiftCursor(false)
	}
	return fmt.Errorf("ws0010: move %d: %w", dir, display.ErrNotImplemented)
}

// Cursor sets the cursor appearance. CursorOff clears both the cursor and
// blink bits, CursorUnderline shows the cursor and CursorBlink or
// CursorBlock blink the character cell. Modes are applied in order and sent
// as a single display control command.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	c := d.displayControl
	for _, m := range modes {
		switch m {
		case display.CursorOff:
			c &^= cursorOn | blinkOn
		case display.CursorUnderline:
			c |= cursorOn
		case display.CursorBlink, display.CursorBlock:
			c |= blinkOn
		default:
			return fmt.Errorf("%w: cursor mode %d", ErrInvalidArgument, m)
		}
	}
	d.displayControl = c
	return d.sendCommand(cmdDisplayControl | d.displayControl)
}

// Display turns the display on or off.
func (d *Dev) Display(on bool) error {
	return d.setDisplayControl(displayOn, on)
}

// AutoScroll makes the display shift on each character write, keeping the
// cursor direction.
func (d *Dev) AutoScroll(enabled bool) error {
	return d.SetEntryMode(d.entryMode&entryIncrement != 0, enabled)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ws0010.Dev{%dx%d, %s}", d.cols, d.lines, d.width)
}

var _ display.TextDisplay = (*Dev)(nil)
