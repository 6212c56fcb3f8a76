// Package gpiobus drives the parallel interface of a WS0010 display with
// periph.io GPIO pins.
package gpiobus

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ws0010"
)

// Pins is the wiring of the display.
type Pins struct {
	RS gpio.PinOut // Register select
	RW gpio.PinOut // Read/write
	E  gpio.PinOut // Enable strobe

	// Data lines, least significant first: D0-D7 for an 8-bit bus, D4-D7
	// for a 4-bit bus.
	Data []gpio.PinOut

	// Group drives the data lines in one call instead of Data, for chips
	// that expose a gpio.Group. Offset 0 is the least significant line.
	Group gpio.Group

	// Busy is the D7 line as an input capable pin (optional). It is
	// required for ws0010.Opts.BusyPoll, and then every data line must
	// also be usable as an input.
	Busy gpio.PinIO
}

// Bus implements ws0010.Bus and ws0010.BusyReader.
type Bus struct {
	rs, rw, e gpio.PinOut
	data      []gpio.PinOut
	group     gpio.Group
	width     int

	// Data lines released to the controller during a busy read.
	inputs []gpio.PinIn
	busy   gpio.PinIO

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

// New returns a Bus on the given pins. All control pins are required and
// exactly one of Data or Group must provide 4 or 8 lines.
func New(p *Pins) (*Bus, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pins", ws0010.ErrInvalidArgument)
	}
	if p.RS == nil || p.RW == nil || p.E == nil {
		return nil, fmt.Errorf("%w: RS, RW and E pins are required", ws0010.ErrInvalidArgument)
	}
	if p.Group != nil && len(p.Data) != 0 {
		return nil, fmt.Errorf("%w: set either Data or Group", ws0010.ErrInvalidArgument)
	}

	b := &Bus{
		rs:    p.RS,
		rw:    p.RW,
		e:     p.E,
		group: p.Group,
		busy:  p.Busy,
		sleep: time.Sleep,
	}

	var lines []interface{}
	if p.Group != nil {
		for _, gp := range p.Group.Pins() {
			lines = append(lines, gp)
		}
	} else {
		for i, pin := range p.Data {
			if pin == nil {
				return nil, fmt.Errorf("%w: data pin %d is nil", ws0010.ErrInvalidArgument, i)
			}
			lines = append(lines, pin)
		}
		b.data = append([]gpio.PinOut(nil), p.Data...)
	}
	if len(lines) != 4 && len(lines) != 8 {
		return nil, fmt.Errorf("%w: need 4 or 8 data pins, got %d", ws0010.ErrInvalidArgument, len(lines))
	}
	b.width = len(lines)

	if p.Busy != nil {
		for i, l := range lines {
			in, ok := l.(gpio.PinIn)
			if !ok {
				return nil, fmt.Errorf("%w: data pin %d can't be read for the busy flag", ws0010.ErrInvalidArgument, i)
			}
			b.inputs = append(b.inputs, in)
		}
	}
	return b, nil
}

// Width returns the bus width matching the number of data pins.
func (b *Bus) Width() ws0010.BusWidth {
	if b.width == 4 {
		return ws0010.Bus4Bit
	}
	return ws0010.Bus8Bit
}

// Delay sleeps for at least d. The scheduler may oversleep, which the
// controller tolerates since every delay is a minimum.
func (b *Bus) Delay(d time.Duration) {
	b.sleep(d)
}

// SetBus drives data line i with bit i of v. Lines left as inputs by Busy
// become outputs again.
func (b *Bus) SetBus(v byte) error {
	if b.group != nil {
		mask := gpio.GPIOValue(1)<<uint(b.width) - 1
		if err := b.group.Out(gpio.GPIOValue(v)&mask, mask); err != nil {
			return fmt.Errorf("gpiobus: data group %s: %w", b.group, err)
		}
		return nil
	}
	for i, pin := range b.data {
		if err := pin.Out(gpio.Level(v>>uint(i)&1 == 1)); err != nil {
			return fmt.Errorf("gpiobus: data pin %s: %w", pin, err)
		}
	}
	return nil
}

// SetRS raises register select (data register).
func (b *Bus) SetRS() error { return b.rs.Out(gpio.High) }

// ClearRS lowers register select (instruction register).
func (b *Bus) ClearRS() error { return b.rs.Out(gpio.Low) }

// SetRW raises RW (read).
func (b *Bus) SetRW() error { return b.rw.Out(gpio.High) }

// ClearRW lowers RW (write).
func (b *Bus) ClearRW() error { return b.rw.Out(gpio.Low) }

// SetStrobe raises E.
func (b *Bus) SetStrobe() error { return b.e.Out(gpio.High) }

// ClearStrobe lowers E.
func (b *Bus) ClearStrobe() error { return b.e.Out(gpio.Low) }

// Busy reads the busy flag on D7. Every data line is released as an input
// before RW goes high, so only the controller drives the bus during the
// read. The lines stay inputs until the next SetBus.
func (b *Bus) Busy() (bool, error) {
	if b.busy == nil {
		return false, fmt.Errorf("%w: no busy pin", ws0010.ErrInvalidArgument)
	}
	for _, in := range b.inputs {
		if err := in.In(gpio.Float, gpio.NoEdge); err != nil {
			return false, fmt.Errorf("gpiobus: data pin %s: %w", in, err)
		}
	}
	if err := b.busy.In(gpio.Float, gpio.NoEdge); err != nil {
		return false, fmt.Errorf("gpiobus: busy pin %s: %w", b.busy, err)
	}
	if err := b.ClearRS(); err != nil {
		return false, err
	}
	if err := b.SetRW(); err != nil {
		return false, err
	}

	if err := b.SetStrobe(); err != nil {
		return false, err
	}
	b.sleep(time.Microsecond)
	busy := b.busy.Read() == gpio.High
	if err := b.ClearStrobe(); err != nil {
		return false, err
	}

	// The address counter low nibble follows on a 4-bit bus.
	if b.width == 4 {
		b.sleep(time.Microsecond)
		if err := b.SetStrobe(); err != nil {
			return false, err
		}
		b.sleep(time.Microsecond)
		if err := b.ClearStrobe(); err != nil {
			return false, err
		}
	}

	return busy, b.ClearRW()
}

// String returns a string representation of the bus.
func (b *Bus) String() string {
	return fmt.Sprintf("gpiobus.Bus{%s, RS:%s, RW:%s, E:%s}", b.Width(), b.rs, b.rw, b.e)
}
