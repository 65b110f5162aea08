// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

// Package spibb provides a bit-bashed SPI mode 0 master driven over four GPIO
// lines of a Linux GPIO character device (/dev/gpiochipX).
//
// The master toggles the chip-select, clock and data lines in software, so it
// works on any host exposing the GPIO uAPI, with no hardware SPI controller
// involved. Data is set up while the clock is low and sampled on the rising
// edge, most significant bit first.
//
// Example of use:
//
//	m, err := spibb.New(spibb.Pins{CS: 0, SCK: 1, MOSI: 2, MISO: 3}, "/dev/gpiochip0")
//	if err != nil {
//		panic(err)
//	}
//	defer m.Close()
//
//	rx := make([]byte, 3)
//	m.PutCmd(0x9f, nil, rx)
//
// A Master is not safe for concurrent use. The line handles and the cached
// line state are unsynchronized, so callers must serialize all access to a
// Master instance themselves.
package spibb

import (
	"time"

	"github.com/pkg/errors"
)

// chipPrefix is the device naming convention for GPIO character devices.
const chipPrefix = "/dev/gpiochip"

// maxOffset bounds the pin offsets accepted for any line.
const maxOffset = 1000

// Pins assigns GPIO line offsets to the four SPI bus lines.
//
// All four offsets must be distinct and within the offset range of the chip.
// CS, SCK and MOSI are driven as outputs, MISO is read as an input.
type Pins struct {
	CS   int
	SCK  int
	MOSI int
	MISO int
}

// Logger is the diagnostic sink for the master.
//
// It is satisfied by *log.Logger. Diagnostics are suppressed unless a Logger
// is provided with WithLogger.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Master is a software SPI mode 0 master.
//
// It exclusively owns its four GPIO lines from New until Close.
type Master struct {
	ctrl lineController
	pins Pins

	cs   line
	sck  line
	mosi line
	miso line

	// last driven level of each output line
	currCS   int
	currSCK  int
	currMOSI int

	csMode   csMode
	tclk     time.Duration
	consumer string
	log      Logger
}

// Option specifies a construction option for the Master.
type Option func(*Master)

// WithLogger sets the diagnostic sink for the Master.
func WithLogger(l Logger) Option {
	return func(m *Master) {
		m.log = l
	}
}

// WithTclk sets a settle time applied between clock edges.
//
// Note that this is the half-cycle period. The default is zero, i.e. the bus
// is clocked as fast as the GPIO uAPI allows.
func WithTclk(tclk time.Duration) Option {
	return func(m *Master) {
		m.tclk = tclk
	}
}

// WithConsumer sets the consumer label applied to the requested lines.
func WithConsumer(consumer string) Option {
	return func(m *Master) {
		m.consumer = consumer
	}
}

// New creates a Master from four GPIO lines of the chip at dev.
//
// An empty dev defaults to "/dev/gpiochip0". The pin assignment is validated
// before the chip is opened. On success all three output lines have been
// driven to their idle levels - CS deasserted (high), SCK low, MOSI low - and
// the chip-select mode is automatic.
func New(pins Pins, dev string, options ...Option) (*Master, error) {
	if dev == "" {
		dev = chipPrefix + "0"
	}
	if len(dev) <= len(chipPrefix) || dev[:len(chipPrefix)] != chipPrefix {
		return nil, errors.Wrapf(ErrInvalidChip, "%s", dev)
	}
	offsets := []int{pins.CS, pins.SCK, pins.MOSI, pins.MISO}
	for i, o := range offsets {
		if o < 0 || o >= maxOffset {
			return nil, errors.Wrapf(ErrPinOutOfRange, "pin %d", o)
		}
		for _, p := range offsets[i+1:] {
			if o == p {
				return nil, errors.Wrapf(ErrDuplicatePin, "pin %d", o)
			}
		}
	}
	m := &Master{
		pins:     pins,
		consumer: "spibb",
		csMode:   csAuto,
	}
	for _, option := range options {
		option(m)
	}
	m.logf("spi bitbang master, dev=%s, cs=%d, sck=%d, mosi=%d, miso=%d",
		dev, pins.CS, pins.SCK, pins.MOSI, pins.MISO)
	if m.ctrl == nil {
		ctrl, err := newChipController(dev, m.consumer)
		if err != nil {
			return nil, err
		}
		m.ctrl = ctrl
	}
	var err error
	defer func() {
		if err != nil {
			m.Close()
		}
	}()
	// requesting a line drives its idle level
	m.cs, err = m.ctrl.RequestOutput(pins.CS, 1)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting cs line %d", pins.CS)
	}
	m.currCS = 1
	m.sck, err = m.ctrl.RequestOutput(pins.SCK, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting sck line %d", pins.SCK)
	}
	m.currSCK = 0
	m.mosi, err = m.ctrl.RequestOutput(pins.MOSI, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting mosi line %d", pins.MOSI)
	}
	m.currMOSI = 0
	m.miso, err = m.ctrl.RequestInput(pins.MISO)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting miso line %d", pins.MISO)
	}
	return m, nil
}

// Close releases the four lines, in reverse order of acquisition, and closes
// the chip. Lines that were never acquired are skipped, so Close is safe on a
// partially constructed Master.
func (m *Master) Close() {
	for _, l := range []line{m.miso, m.mosi, m.sck, m.cs} {
		if l != nil {
			l.Close()
		}
	}
	m.miso, m.mosi, m.sck, m.cs = nil, nil, nil, nil
	if m.ctrl != nil {
		m.ctrl.Close()
		m.ctrl = nil
	}
}

// Pins returns the pin assignment of the Master.
func (m *Master) Pins() Pins {
	return m.pins
}

func (m *Master) logf(format string, v ...interface{}) {
	if m.log != nil {
		m.log.Printf(format, v...)
	}
}
