// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

package main

import (
	"fmt"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"

	"github.com/niklasekstrom/go-spibb"
	"github.com/niklasekstrom/go-spibb/flash25"
)

// This example reads the JEDEC ID and status register of an SPI flash
// connected by four data lines - CS, SCK, MOSI and MISO. The default pin
// assignments are defined in loadConfig, but can be altered via configuration
// (env, flag or config file).
func main() {
	cfg := loadConfig()
	m, err := spibb.New(
		spibb.Pins{
			CS:   int(cfg.MustGet("cs").Int()),
			SCK:  int(cfg.MustGet("sck").Int()),
			MOSI: int(cfg.MustGet("mosi").Int()),
			MISO: int(cfg.MustGet("miso").Int()),
		},
		cfg.MustGet("chip").String(),
	)
	if err != nil {
		panic(err)
	}
	defer m.Close()
	f := flash25.New(m)
	id, err := f.ReadID()
	if err != nil {
		panic(err)
	}
	st, err := f.ReadStatus()
	if err != nil {
		panic(err)
	}
	fmt.Printf("id=%02x %02x %02x status=%02x\n",
		id.Manufacturer, id.MemoryType, id.Capacity, st)
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"chip": "/dev/gpiochip0",
		"cs":   8,
		"sck":  11,
		"mosi": 10,
		"miso": 9,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	shortFlags := map[byte]string{
		'c': "config-file",
	}
	// highest priority sources first - flags override environment
	cfg := config.New(
		pflag.New(pflag.WithShortFlags(shortFlags)),
		env.New(env.WithEnvPrefix("FLASHID_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "flashid.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}
