/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Serial poll a device",
	Long: `Read the serial poll status byte of the addressed device.

The byte is printed in hex together with the decoded IEEE-488.2 bits:
RQS (service request), ESB (event status) and MAV (message available).

Example usage:
  gpibctl poll --pad 22
  gpibctl --sim poll --pad 9`,
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var status byte
		err = dev.Session(context.Background(), func(ctx context.Context) error {
			b, err := dev.SerialPoll(ctx)
			if err != nil {
				return err
			}
			status = b
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var bits []string
		if status&0x40 != 0 {
			bits = append(bits, "RQS")
		}
		if status&0x20 != 0 {
			bits = append(bits, "ESB")
		}
		if status&0x10 != 0 {
			bits = append(bits, "MAV")
		}

		byteStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
		fmt.Printf("%s 0x%02X", byteStyle.Render("STB:"), status)
		if len(bits) > 0 {
			fmt.Printf("  (%s)", strings.Join(bits, " "))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
}
