package main

import (
	"fmt"

	"github.com/JeanRibes/piano-game/keyboard"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI and serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer midi.CloseDriver()
		ins, outs := keyboard.Ports()
		fmt.Println("MIDI inputs:")
		for _, p := range ins {
			fmt.Println("  " + p)
		}
		fmt.Println("MIDI outputs:")
		for _, p := range outs {
			fmt.Println("  " + p)
		}
		serials, err := keyboard.SerialPorts()
		if err != nil {
			return err
		}
		fmt.Println("serial ports:")
		for _, p := range serials {
			fmt.Println("  " + p)
		}
		return nil
	},
}
