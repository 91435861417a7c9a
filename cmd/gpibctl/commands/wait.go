/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	gpib "github.com/allbin/go-gpib"
	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a device to request service",
	Long: `Block until the addressed device asserts SRQ (service request), then
optionally serial poll it.

The bus timeout (--timeout) bounds the wait; a device that never
requests service within it fails with a timeout error. With --poll the
status byte is read and printed once the request arrives, which also
answers the request.

Example usage:
  gpibctl wait --pad 22 --timeout 30s
  gpibctl wait --pad 22 --poll`,
	Run: func(cmd *cobra.Command, args []string) {
		doPoll, _ := cmd.Flags().GetBool("poll")

		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var status byte
		err = dev.Session(context.Background(), func(ctx context.Context) error {
			if err := dev.Wait(ctx, gpib.StatusSRQI); err != nil {
				return err
			}
			if doPoll {
				b, err := dev.SerialPoll(ctx)
				if err != nil {
					return err
				}
				status = b
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gpib.ErrTimeout) {
				fmt.Fprintln(os.Stderr, "Timed out waiting for service request")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if doPoll {
			fmt.Printf("Service requested by %s, STB: 0x%02X\n", dev.ID(), status)
		} else {
			fmt.Printf("Service requested on the bus\n")
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().Bool("poll", false, "Serial poll the device once SRQ is seen")
}
