/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Send a Selected Device Clear to a device",
	Long: `Send a Selected Device Clear (SDC) to the addressed device.

This resets the device's bus message handling: input and output buffers
are flushed and a partially transferred message is discarded. Device
settings are not affected (use the instrument's *RST for that).

Example usage:
  gpibctl clear --pad 22`,
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		err = dev.Session(context.Background(), func(ctx context.Context) error {
			return dev.Clear(ctx)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Cleared %s\n", dev.ID())
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
