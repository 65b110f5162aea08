// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

package spibb

import (
	"time"

	"github.com/pkg/errors"
)

// csMode selects who brackets transfers with chip-select.
type csMode int

const (
	// csAuto asserts and deasserts CS around each individual transfer.
	csAuto csMode = iota
	// csManual leaves CS to the caller, so several transfers can share one
	// CS-asserted window.
	csManual
)

func (m *Master) setCSMode(mode csMode) {
	m.csMode = mode
}

// updatePins drives the three output lines, writing only lines whose
// requested level differs from the last driven level.
//
// A failed line write is logged and otherwise ignored, and the cache is
// updated regardless. Bitbang SPI has no way to recover mid-byte anyway, and
// in practice such failures are transient reporting conditions, so the
// transfer carries on.
func (m *Master) updatePins(cs, sck, mosi int) {
	if mosi != m.currMOSI {
		if err := m.mosi.SetValue(mosi); err != nil {
			m.logf("can't set mosi line: %v", err)
		}
	}
	if sck != m.currSCK {
		if err := m.sck.SetValue(sck); err != nil {
			m.logf("can't set sck line: %v", err)
		}
	}
	if cs != m.currCS {
		if err := m.cs.SetValue(cs); err != nil {
			m.logf("can't set cs line: %v", err)
		}
	}
	m.currCS = cs
	m.currSCK = sck
	m.currMOSI = mosi
}

// readMISO samples the input line.
func (m *Master) readMISO() (int, error) {
	v, err := m.miso.Value()
	if err != nil {
		return 0, errors.Wrap(err, "reading miso line")
	}
	if v != 0 {
		return 1, nil
	}
	return 0, nil
}

// setCS deasserts chip-select (drives it high), leaving SCK and MOSI as is.
func (m *Master) setCS() {
	m.updatePins(1, m.currSCK, m.currMOSI)
}

// clearCS asserts chip-select (drives it low), leaving SCK and MOSI as is.
func (m *Master) clearCS() {
	m.updatePins(0, m.currSCK, m.currMOSI)
}

func (m *Master) settle() {
	if m.tclk > 0 {
		time.Sleep(m.tclk)
	}
}

// transfer clocks count bytes over the bus, most significant bit first, in
// SPI mode 0: MOSI is set up while SCK is low and MISO is sampled on the
// rising edge.
//
// A nil tx clocks out zeros; a nil rx discards the sampled bytes. In csAuto
// mode CS is asserted before the first bit and deasserted after the last -
// including on the abort path taken when a MISO read fails.
func (m *Master) transfer(count int, tx, rx []byte) error {
	if m.csMode == csAuto {
		m.clearCS()
	}
	for i := 0; i < count; i++ {
		var wv byte
		if tx != nil {
			wv = tx[i]
		}
		var rv byte
		for j := 0; j < 8; j++ {
			m.updatePins(m.currCS, 0, int(wv>>7))
			wv <<= 1
			m.settle()
			m.updatePins(m.currCS, 1, m.currMOSI)
			v, err := m.readMISO()
			if err != nil {
				if m.csMode == csAuto {
					m.setCS()
				}
				return err
			}
			rv = rv<<1 | byte(v)
			m.settle()
			m.updatePins(m.currCS, 0, m.currMOSI)
		}
		if rx != nil {
			rx[i] = rv
		}
	}
	if m.csMode == csAuto {
		m.setCS()
	}
	return nil
}

// Put performs one raw transfer as a single electrical transaction.
//
// The number of bytes clocked is len(tx), or len(rx) if tx is nil. Either
// buffer may be nil.
func (m *Master) Put(tx, rx []byte) error {
	count := len(tx)
	if tx == nil {
		count = len(rx)
	}
	return m.transfer(count, tx, rx)
}

// PutCmd clocks cmd followed by tx as a single electrical transaction, so CS
// stays asserted across command and payload.
//
// The payload length is len(tx), or len(rx) if tx is nil; a nil tx clocks
// zeros after the command. If rx is non-nil it receives the bytes sampled in
// the payload slots - the byte sampled while the command was clocked is
// discarded.
func (m *Master) PutCmd(cmd byte, tx, rx []byte) error {
	count := len(tx)
	if tx == nil {
		count = len(rx)
	}
	jtx := make([]byte, count+1)
	jtx[0] = cmd
	copy(jtx[1:], tx)
	var jrx []byte
	if rx != nil {
		jrx = make([]byte, count+1)
	}
	if err := m.transfer(count+1, jtx, jrx); err != nil {
		return err
	}
	if rx != nil {
		copy(rx, jrx[1:])
	}
	return nil
}

// WriteThenRead clocks out tx and then clocks in len(rx) bytes within a
// single CS-asserted window.
//
// Transfer errors are logged, but CS is deasserted and automatic CS mode
// restored regardless, and the first error is returned.
func (m *Master) WriteThenRead(tx, rx []byte) error {
	m.setCSMode(csManual)
	m.clearCS()
	err := m.transfer(len(tx), tx, nil)
	if err != nil {
		m.logf("write error: %v", err)
	} else {
		err = m.transfer(len(rx), nil, rx)
		if err != nil {
			m.logf("read error: %v", err)
		}
	}
	m.setCS()
	m.setCSMode(csAuto)
	return err
}

// Wait clocks cmd once and then polls the bus one byte at a time, within a
// single CS-asserted window, until (byte & mask) == cond.
//
// At most timeout bytes are read; if the condition is still unmet after the
// last of them, ErrTimeout is returned. When verbose is set each sampled byte
// is reported to the diagnostic sink. CS is deasserted and automatic CS mode
// restored on every return path.
func (m *Master) Wait(cmd, mask, cond byte, timeout uint32, verbose bool) error {
	var buf [1]byte
	var count uint32

	m.setCSMode(csManual)
	m.clearCS()
	err := m.transfer(1, []byte{cmd}, nil)
	for err == nil {
		err = m.transfer(1, nil, buf[:])
		if err != nil {
			break
		}
		count++
		if count == timeout {
			m.logf("timeout: %02x %d", buf[0], count)
			break
		}
		if verbose {
			m.logf("%02x %02x %02x %d", buf[0], mask, cond, count)
		}
		if buf[0]&mask == cond {
			break
		}
	}
	m.setCS()
	m.setCSMode(csAuto)
	if err != nil {
		return err
	}
	if count == timeout {
		return errors.Wrapf(ErrTimeout, "status %02x after %d attempts", buf[0], count)
	}
	return nil
}
