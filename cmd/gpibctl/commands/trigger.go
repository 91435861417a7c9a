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

// triggerCmd represents the trigger command
var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Send a Group Execute Trigger to a device",
	Long: `Send a Group Execute Trigger (GET) to the addressed device.

Instruments typically arm a measurement on trigger; pair this with a
subsequent query to fetch the result.

Example usage:
  gpibctl trigger --pad 22
  gpibctl trigger --pad 22 && gpibctl query "FETC?" --pad 22`,
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		err = dev.Session(context.Background(), func(ctx context.Context) error {
			return dev.Trigger(ctx)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Triggered %s\n", dev.ID())
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
