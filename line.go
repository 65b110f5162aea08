// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

package spibb

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// line is a single requested GPIO line.
type line interface {
	SetValue(value int) error
	Value() (int, error)
	Close() error
}

// lineController hands out exclusive GPIO lines.
//
// The only production implementation is backed by go-gpiocdev, which covers
// both generations of the GPIO uAPI itself.
type lineController interface {
	RequestOutput(offset, value int) (line, error)
	RequestInput(offset int) (line, error)
	Close() error
}

type chipController struct {
	chip *gpiocdev.Chip
}

func newChipController(dev, consumer string) (*chipController, error) {
	c, err := gpiocdev.NewChip(dev, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, errors.Wrapf(err, "opening gpio chip %s", dev)
	}
	return &chipController{chip: c}, nil
}

func (c *chipController) RequestOutput(offset, value int) (line, error) {
	l, err := c.chip.RequestLine(offset,
		gpiocdev.AsOutput(value),
		gpiocdev.WithBiasDisabled)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *chipController) RequestInput(offset int) (line, error) {
	l, err := c.chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithBiasDisabled)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *chipController) Close() error {
	return c.chip.Close()
}
