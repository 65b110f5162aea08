// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

// Package flash25 provides a driver for 25-series SPI NOR flash and EEPROM
// devices (W25Qxx, MX25Lxx, 25AAxxx and friends) on top of a spibb.Master.
//
// Only the classic single-IO instruction set with 24-bit addressing is used.
package flash25

import (
	"github.com/pkg/errors"
)

// Instruction opcodes common to the 25 series.
const (
	cmdWriteStatus  = 0x01
	cmdPageProgram  = 0x02
	cmdReadData     = 0x03
	cmdWriteDisable = 0x04
	cmdReadStatus   = 0x05
	cmdWriteEnable  = 0x06
	cmdSectorErase  = 0x20
	cmdJEDECID      = 0x9f
	cmdChipErase    = 0xc7
)

// Status register bits.
const (
	// StatusBusy is the write-in-progress bit.
	StatusBusy = 0x01
	// StatusWEL is the write-enable latch bit.
	StatusWEL = 0x02
)

// PageSize is the program page size shared by the whole family.
const PageSize = 256

// DefaultTimeout is the default status poll budget, in read attempts.
//
// Chip erase on larger parts can run for tens of seconds, so the budget is
// generous; polling stops as soon as the busy bit clears.
const DefaultTimeout = 100000

// Bus is the transfer interface required of the underlying SPI master.
// It is satisfied by *spibb.Master.
type Bus interface {
	Put(tx, rx []byte) error
	PutCmd(cmd byte, tx, rx []byte) error
	WriteThenRead(tx, rx []byte) error
	Wait(cmd, mask, cond byte, timeout uint32, verbose bool) error
}

// ID is a JEDEC device identifier.
type ID struct {
	Manufacturer byte
	MemoryType   byte
	Capacity     byte
}

// Flash drives a 25-series device connected to a bit-bashed SPI bus.
type Flash struct {
	bus     Bus
	timeout uint32
}

// Option specifies a construction option for the Flash.
type Option func(*Flash)

// WithTimeout sets the status poll budget, in read attempts.
func WithTimeout(timeout uint32) Option {
	return func(f *Flash) {
		f.timeout = timeout
	}
}

// New creates a Flash on the given bus.
func New(bus Bus, options ...Option) *Flash {
	f := &Flash{bus: bus, timeout: DefaultTimeout}
	for _, option := range options {
		option(f)
	}
	return f
}

// ReadID reads the JEDEC identifier.
func (f *Flash) ReadID() (ID, error) {
	var rx [3]byte
	if err := f.bus.PutCmd(cmdJEDECID, nil, rx[:]); err != nil {
		return ID{}, err
	}
	return ID{Manufacturer: rx[0], MemoryType: rx[1], Capacity: rx[2]}, nil
}

// ReadStatus reads the status register.
func (f *Flash) ReadStatus() (byte, error) {
	var rx [1]byte
	if err := f.bus.PutCmd(cmdReadStatus, nil, rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}

// WriteEnable sets the write-enable latch. Required before any program or
// erase instruction.
func (f *Flash) WriteEnable() error {
	return f.bus.Put([]byte{cmdWriteEnable}, nil)
}

// WriteDisable clears the write-enable latch.
func (f *Flash) WriteDisable() error {
	return f.bus.Put([]byte{cmdWriteDisable}, nil)
}

// WaitReady polls the status register until the busy bit clears.
func (f *Flash) WaitReady() error {
	return f.bus.Wait(cmdReadStatus, StatusBusy, 0, f.timeout, false)
}

// ReadData reads len(buf) bytes starting at addr.
func (f *Flash) ReadData(addr uint32, buf []byte) error {
	tx := []byte{cmdReadData, byte(addr >> 16), byte(addr >> 8), byte(addr)}
	return f.bus.WriteThenRead(tx, buf)
}

// PageProgram programs data at addr within a single page. The write must not
// cross a page boundary or the device would wrap within the page.
func (f *Flash) PageProgram(addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > PageSize {
		return errors.Errorf("invalid program length %d", len(data))
	}
	if int(addr%PageSize)+len(data) > PageSize {
		return errors.Errorf("program crosses page boundary at 0x%06x", addr)
	}
	if err := f.WriteEnable(); err != nil {
		return err
	}
	tx := make([]byte, 3+len(data))
	tx[0] = byte(addr >> 16)
	tx[1] = byte(addr >> 8)
	tx[2] = byte(addr)
	copy(tx[3:], data)
	if err := f.bus.PutCmd(cmdPageProgram, tx, nil); err != nil {
		return err
	}
	return f.WaitReady()
}

// Write programs data starting at addr, splitting it into page-aligned
// chunks and polling out each internal write cycle.
func (f *Flash) Write(addr uint32, data []byte) error {
	for len(data) > 0 {
		chunk := data
		if space := PageSize - int(addr%PageSize); len(chunk) > space {
			chunk = chunk[:space]
		}
		if err := f.PageProgram(addr, chunk); err != nil {
			return err
		}
		addr += uint32(len(chunk))
		data = data[len(chunk):]
	}
	return nil
}

// SectorErase erases the 4KiB sector containing addr.
func (f *Flash) SectorErase(addr uint32) error {
	if err := f.WriteEnable(); err != nil {
		return err
	}
	tx := []byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
	if err := f.bus.PutCmd(cmdSectorErase, tx, nil); err != nil {
		return err
	}
	return f.WaitReady()
}

// ChipErase erases the entire device.
func (f *Flash) ChipErase() error {
	if err := f.WriteEnable(); err != nil {
		return err
	}
	if err := f.bus.Put([]byte{cmdChipErase}, nil); err != nil {
		return err
	}
	return f.WaitReady()
}
