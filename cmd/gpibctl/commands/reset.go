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

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Pulse Interface Clear on the bus",
	Long: `Pulse the IFC (Interface Clear) line on the controller board.

This unsticks a hung bus: all devices release the bus and return to an
idle state, and the board becomes controller-in-charge. Device state is
untouched; only the bus handshake is reset.

This is a board-level command and does not need --pad.

Example usage:
  gpibctl reset
  gpibctl reset --board gpib1`,
	Run: func(cmd *cobra.Command, args []string) {
		board, err := openBoard()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		err = board.Session(context.Background(), func(ctx context.Context) error {
			return board.InterfaceClear(ctx)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Interface clear pulsed on %s\n", board.ID())
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
