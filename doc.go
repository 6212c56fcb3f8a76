// Package ws0010 controls a WS0010 character OLED display over a parallel
// GPIO bus.
//
// The WS0010 speaks the HD44780 command set, so the driver also works with
// HD44780 compatible LCD modules wired the same way. It covers the protocol
// layer only: command encoding, the 4-bit/8-bit strobe sequence and the
// settle delays each command needs. Pin access is supplied by the caller
// through the Bus interface; package gpiobus provides one on top of
// periph.io GPIO pins, either discrete or as a gpio.Group.
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 5V (or 3.3V depending on module)
//	RS          → GPIO
//	RW          → GPIO (or GND if busy polling is not used)
//	E           → GPIO
//	D0-D7       → 8 GPIOs for an 8-bit bus
//	D4-D7       → 4 GPIOs for a 4-bit bus
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/devices/v3/ws0010"
//		"periph.io/x/devices/v3/ws0010/gpiobus"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		bus, _ := gpiobus.New(&gpiobus.Pins{
//			RS: gpioreg.ByName("GPIO25"),
//			RW: gpioreg.ByName("GPIO24"),
//			E:  gpioreg.ByName("GPIO23"),
//			Data: []gpio.PinOut{
//				gpioreg.ByName("GPIO17"),
//				gpioreg.ByName("GPIO18"),
//				gpioreg.ByName("GPIO27"),
//				gpioreg.ByName("GPIO22"),
//			},
//		})
//
//		dev, _ := ws0010.New(bus, &ws0010.Opts{
//			Lines: 2,
//			Cols:  16,
//			Width: ws0010.Bus4Bit,
//		})
//		defer dev.Halt()
//
//		dev.Print([]byte("Hello"))
//		dev.SetCursor(1, 0)
//		dev.Print([]byte("world"))
//	}
//
// # Timing
//
// Every byte is latched with the same strobe: E low, 1µs, E high, 1µs, E low,
// 100µs. On a 4-bit bus the high nibble goes first and the strobe runs twice.
// After each command the driver waits the controller's worst case:
//
//	Power on       50ms
//	Function set   4.5ms
//	Display ctrl   4.5ms (during init)
//	Clear          7ms
//	Home           2ms
//
// All waits go through Bus.Delay and are minimums.
//
// # Busy Flag
//
// By default the driver never reads the bus back and relies on the fixed
// delays above. Set Opts.BusyPoll with a bus implementing BusyReader to also
// wait for the busy flag before each transfer; the poll gives up after 200
// reads 5ms apart and returns ErrBusy. Function Set is always sent without
// polling since the flag means nothing before it.
//
// # Cached State
//
// The controller is write only, so the driver keeps the last entry mode,
// display control and function set bytes. DisplayOn, CursorOn, BlinkOn and
// their Off counterparts change one bit of the cached display control byte
// and resend all of it.
//
// # Text Display
//
// Dev implements periph's display.TextDisplay, so it can be used wherever a
// generic text display is expected. Rows and columns are 0-based.
//
// # Printing
//
// Print is best effort: every byte is sent even if an earlier one failed, and
// the returned error joins all failures. Write (io.Writer) stops at the first
// failed byte.
//
// # Concurrency
//
// A Dev is not safe for concurrent use. The pins of one Bus belong to a
// single Dev.
//
// # Datasheet
//
// https://www.winstar.com.tw/uploads/files/WS0010.pdf
package ws0010
