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

// localCmd represents the local command
var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Return a device to local (front panel) control",
	Long: `Return the addressed device to local control so its front panel
works again.

With --all the board deasserts the REN (Remote Enable) line instead,
returning every device on the bus to local control; that form does not
need --pad.

Example usage:
  gpibctl local --pad 22
  gpibctl local --all`,
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")

		if all {
			board, err := openBoard()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			err = board.Session(context.Background(), func(ctx context.Context) error {
				return board.RemoteEnable(ctx, false)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("REN deasserted on %s, all devices local\n", board.ID())
			return
		}

		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		err = dev.Session(context.Background(), func(ctx context.Context) error {
			_, err := dev.PushToLocal(ctx)
			return err
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s returned to local control\n", dev.ID())
	},
}

func init() {
	rootCmd.AddCommand(localCmd)

	localCmd.Flags().Bool("all", false, "Deassert REN, returning all devices to local")
}
