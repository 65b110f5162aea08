// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

//go:build linux

package spibb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiosim"

	"github.com/niklasekstrom/go-spibb"
)

var simPins = spibb.Pins{CS: 0, SCK: 1, MOSI: 2, MISO: 3}

// newSim creates a single chip gpio-sim simulator.
//
// Requires the gpio-sim kernel module and root permissions, so these tests
// are skipped where the simulator cannot be created.
func newSim(t *testing.T) *gpiosim.Simpleton {
	t.Helper()
	s, err := gpiosim.NewSimpleton(8)
	if err != nil {
		t.Skip("gpio-sim unavailable:", err)
	}
	return s
}

func checkLevel(t *testing.T, s *gpiosim.Simpleton, offset, xv int) {
	t.Helper()
	v, err := s.Level(offset)
	assert.Nil(t, err)
	assert.Equal(t, xv, v, "offset %d", offset)
}

func TestNewSim(t *testing.T) {
	s := newSim(t)
	defer s.Close()

	m, err := spibb.New(simPins, s.DevPath())
	require.Nil(t, err)
	// idle bus: CS deasserted, clock and data low
	checkLevel(t, s, simPins.CS, 1)
	checkLevel(t, s, simPins.SCK, 0)
	checkLevel(t, s, simPins.MOSI, 0)
	m.Close()

	// lines are released again
	m, err = spibb.New(simPins, s.DevPath())
	require.Nil(t, err)
	m.Close()
}

func TestPutSim(t *testing.T) {
	s := newSim(t)
	defer s.Close()

	m, err := spibb.New(simPins, s.DevPath())
	require.Nil(t, err)
	defer m.Close()

	// miso pulled low reads as zeros
	rx := make([]byte, 2)
	err = m.Put([]byte{0xa5, 0x3c}, rx)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, rx)
	checkLevel(t, s, simPins.CS, 1)
	checkLevel(t, s, simPins.SCK, 0)

	// miso pulled high reads as ones
	err = s.Pullup(simPins.MISO)
	require.Nil(t, err)
	err = m.Put(nil, rx)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0xff, 0xff}, rx)
	checkLevel(t, s, simPins.CS, 1)
}

func TestWaitSim(t *testing.T) {
	s := newSim(t)
	defer s.Close()

	m, err := spibb.New(simPins, s.DevPath())
	require.Nil(t, err)
	defer m.Close()

	err = s.Pullup(simPins.MISO)
	require.Nil(t, err)
	err = m.Wait(0x05, 0x01, 0x01, 10, false)
	assert.Nil(t, err)
	checkLevel(t, s, simPins.CS, 1)

	err = s.Pulldown(simPins.MISO)
	require.Nil(t, err)
	err = m.Wait(0x05, 0x01, 0x01, 3, false)
	assert.ErrorIs(t, err, spibb.ErrTimeout)
	checkLevel(t, s, simPins.CS, 1)
}
