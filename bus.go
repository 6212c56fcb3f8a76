package ws0010

import (
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Bus is the set of pin primitives the driver needs from the platform.
//
// SetBus drives the data lines: all 8 bits on an 8-bit bus, or bits 0-3 on a
// 4-bit bus (wired to D4-D7 of the controller). Delay must block for at least
// the requested duration.
type Bus interface {
	Delay(d time.Duration)
	SetBus(v byte) error

	// Register select
	SetRS() error
	ClearRS() error

	// Read/write direction
	SetRW() error
	ClearRW() error

	// Enable strobe
	SetStrobe() error
	ClearStrobe() error
}

// BusyReader is implemented by buses that can sample the controller's busy
// flag (DB7 with RS low and RW high).
type BusyReader interface {
	Busy() (bool, error)
}

type writeMode bool

const (
	modeCommand writeMode = false
	modeData    writeMode = true
)

// Strobe and busy polling timings.
const (
	strobeSetup  = 1 * time.Microsecond
	strobeHold   = 1 * time.Microsecond
	strobeSettle = 100 * time.Microsecond

	busyAttempts = 200
	busyInterval = 5000 * time.Microsecond
)

// sendCommand writes a command byte with RS low.
func (d *Dev) sendCommand(cmd byte) error {
	if glog.V(3) {
		glog.Infof("ws0010: cmd 0x%02X", cmd)
	}
	return d.write(cmd, modeCommand)
}

// sendData writes a character byte with RS high.
func (d *Dev) sendData(b byte) error {
	return d.write(b, modeData)
}

// write selects the register, then transfers b in one or two strobes
// depending on the bus width.
func (d *Dev) write(b byte, mode writeMode) error {
	if d.busyPoll && d.configured {
		if err := d.waitReady(); err != nil {
			return err
		}
	}

	var err error
	if mode == modeData {
		err = d.bus.SetRS()
	} else {
		err = d.bus.ClearRS()
	}
	if err == nil {
		err = d.bus.ClearRW()
	}
	if err != nil {
		return fmt.Errorf("ws0010: write 0x%02X: %w", b, err)
	}

	switch d.width {
	case Bus8Bit:
		err = d.latch(b)
	case Bus4Bit:
		// High nibble first; the controller only samples the low four
		// lines on the second transfer.
		if err = d.latch(b >> 4); err == nil {
			err = d.latch(b)
		}
	default:
		return fmt.Errorf("%w: bus width %d", ErrInvalidArgument, d.width)
	}
	if err != nil {
		return fmt.Errorf("ws0010: write 0x%02X: %w", b, err)
	}
	return nil
}

// latch presents v on the data lines and clocks it in.
func (d *Dev) latch(v byte) error {
	if err := d.bus.SetBus(v); err != nil {
		return err
	}
	return d.pulseStrobe()
}

// pulseStrobe clocks the value currently on the data lines into the
// controller: E low, E high, E low, with the minimum setup, hold and settle
// times in between.
func (d *Dev) pulseStrobe() error {
	if err := d.bus.ClearStrobe(); err != nil {
		return err
	}
	d.bus.Delay(strobeSetup)

	if err := d.bus.SetStrobe(); err != nil {
		return err
	}
	d.bus.Delay(strobeHold)

	if err := d.bus.ClearStrobe(); err != nil {
		return err
	}
	d.bus.Delay(strobeSettle)
	return nil
}

// waitReady polls the busy flag until it clears or the attempts run out.
func (d *Dev) waitReady() error {
	r := d.bus.(BusyReader)
	for i := 1; ; i++ {
		busy, err := r.Busy()
		if err != nil {
			return fmt.Errorf("ws0010: read busy flag: %w", err)
		}
		if !busy {
			return nil
		}
		if i >= busyAttempts {
			return ErrBusy
		}
		d.bus.Delay(busyInterval)
	}
}
