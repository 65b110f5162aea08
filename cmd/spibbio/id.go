// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/niklasekstrom/go-spibb/flash25"
)

func init() {
	rootCmd.AddCommand(idCmd)
}

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the JEDEC ID of an attached SPI flash",
	Args:  cobra.NoArgs,
	RunE:  id,
}

func id(cmd *cobra.Command, args []string) error {
	m, err := newMaster()
	if err != nil {
		return err
	}
	defer m.Close()
	f := flash25.New(m)
	jid, err := f.ReadID()
	if err != nil {
		return err
	}
	fmt.Printf("manufacturer=0x%02x type=0x%02x capacity=0x%02x\n",
		jid.Manufacturer, jid.MemoryType, jid.Capacity)
	return nil
}
