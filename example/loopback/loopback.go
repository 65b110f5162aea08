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
)

// This example transfers a test pattern and prints what comes back on MISO.
// Wire MOSI to MISO and the output mirrors the pattern. The default pin
// assignments are defined in loadConfig, but can be altered via configuration
// (env, flag or config file). All pins other than MISO are outputs so do not
// run this example on a board where those pins serve other purposes.
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
		spibb.WithTclk(cfg.MustGet("tclk").Duration()),
	)
	if err != nil {
		panic(err)
	}
	defer m.Close()
	tx := []byte{0x55, 0xaa, 0x0f, 0xf0}
	rx := make([]byte, len(tx))
	if err := m.Put(tx, rx); err != nil {
		panic(err)
	}
	fmt.Printf("tx=% 02x\n", tx)
	fmt.Printf("rx=% 02x\n", rx)
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"chip": "/dev/gpiochip0",
		"tclk": "0s",
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
		env.New(env.WithEnvPrefix("LOOPBACK_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "loopback.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}
