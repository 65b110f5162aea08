// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

//go:build linux

package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/niklasekstrom/go-spibb"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "spibbio",
	Short: "spibbio is a utility to drive SPI devices over bit-bashed GPIO lines",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version,
}

var rootOpts = struct {
	Chip    string
	CS      int
	SCK     int
	MOSI    int
	MISO    int
	Tclk    time.Duration
	Verbose bool
}{}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.Chip, "chip", "c", "/dev/gpiochip0", "path to the gpiochip device")
	pf.IntVar(&rootOpts.CS, "cs", 8, "CS line offset")
	pf.IntVar(&rootOpts.SCK, "sck", 11, "SCK line offset")
	pf.IntVar(&rootOpts.MOSI, "mosi", 10, "MOSI line offset")
	pf.IntVar(&rootOpts.MISO, "miso", 9, "MISO line offset")
	pf.DurationVar(&rootOpts.Tclk, "tclk", 0, "settle time between clock edges")
	pf.BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "enable diagnostic output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spibbio: %s\n", err)
		os.Exit(1)
	}
}

func newMaster() (*spibb.Master, error) {
	options := []spibb.Option{
		spibb.WithConsumer("spibbio"),
		spibb.WithTclk(rootOpts.Tclk),
	}
	if rootOpts.Verbose {
		options = append(options, spibb.WithLogger(log.New(os.Stderr, "spibbio: ", 0)))
	}
	pins := spibb.Pins{
		CS:   rootOpts.CS,
		SCK:  rootOpts.SCK,
		MOSI: rootOpts.MOSI,
		MISO: rootOpts.MISO,
	}
	return spibb.New(pins, rootOpts.Chip, options...)
}

func parseByte(arg string) (byte, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("can't parse byte '%s'", arg)
	}
	return byte(v), nil
}

func parseBytes(args []string) ([]byte, error) {
	bb := []byte(nil)
	for _, arg := range args {
		b, err := parseByte(arg)
		if err != nil {
			return nil, err
		}
		bb = append(bb, b)
	}
	return bb, nil
}
