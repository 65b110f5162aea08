// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Niklas Ekström <mail@niklasekstrom.nu>.

//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	waitCmd.Flags().Uint32VarP(&waitOpts.Timeout, "timeout", "t", 1000, "maximum number of status reads")
	rootCmd.AddCommand(waitCmd)
}

var (
	waitCmd = &cobra.Command{
		Use:     "wait <cmd> <mask> <cond>",
		Short:   "Poll a status byte until (status & mask) == cond",
		Args:    cobra.ExactArgs(3),
		RunE:    wait,
		Example: "  spibbio wait 0x05 0x01 0x00",
	}
	waitOpts = struct {
		Timeout uint32
	}{}
)

func wait(cmd *cobra.Command, args []string) error {
	bb, err := parseBytes(args)
	if err != nil {
		return err
	}
	m, err := newMaster()
	if err != nil {
		return err
	}
	defer m.Close()
	err = m.Wait(bb[0], bb[1], bb[2], waitOpts.Timeout, rootOpts.Verbose)
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
