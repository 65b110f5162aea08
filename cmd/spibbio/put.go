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
	putCmd.Flags().IntVarP(&putOpts.Cmd, "cmd", "x", -1, "command byte prefixed to the transfer")
	putCmd.Flags().IntVarP(&putOpts.Read, "read", "r", -1, "number of bytes to read back")
	putCmd.SetHelpTemplate(putCmd.HelpTemplate() + extendedPutHelp)
	rootCmd.AddCommand(putCmd)
}

var (
	putCmd = &cobra.Command{
		Use:     "put <byte1>...",
		Short:   "Transfer bytes over the bus and print the response",
		Args:    cobra.ArbitraryArgs,
		RunE:    put,
		Example: "  spibbio put --cmd 0x9f -r 3",
	}
	putOpts = struct {
		Cmd  int
		Read int
	}{}
)

var extendedPutHelp = `
Bytes:
  Bytes may be given in any form accepted by ParseUint (e.g. 0xab, 171).

Without --read the response has the length of the written bytes. With both
write bytes and --read, the write and read are performed back to back within
a single chip-select window.
`

func put(cmd *cobra.Command, args []string) error {
	tx, err := parseBytes(args)
	if err != nil {
		return err
	}
	m, err := newMaster()
	if err != nil {
		return err
	}
	defer m.Close()
	n := len(tx)
	if putOpts.Read >= 0 {
		n = putOpts.Read
	}
	rx := make([]byte, n)
	switch {
	case putOpts.Cmd >= 0:
		err = m.PutCmd(byte(putOpts.Cmd), tx, rx)
	case putOpts.Read >= 0 && len(tx) > 0:
		err = m.WriteThenRead(tx, rx)
	case len(tx) == 0:
		err = m.Put(nil, rx)
	default:
		err = m.Put(tx, rx)
	}
	if err != nil {
		return err
	}
	fmt.Printf("% 02x\n", rx)
	return nil
}
