// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

package spibb

import "github.com/pkg/errors"

var (
	// ErrInvalidChip indicates the device path does not name a GPIO
	// character device (/dev/gpiochipX).
	ErrInvalidChip = errors.New("invalid gpio chip")

	// ErrPinOutOfRange indicates a pin offset outside the valid range.
	ErrPinOutOfRange = errors.New("pin outside valid range")

	// ErrDuplicatePin indicates two or more bus lines assigned to the same
	// pin offset.
	ErrDuplicatePin = errors.New("two or more pins assigned to the same offset")

	// ErrTimeout indicates Wait exhausted its attempt budget before the
	// status condition was met.
	ErrTimeout = errors.New("timeout waiting for status")
)
