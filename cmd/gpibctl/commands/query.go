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

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <command>",
	Short: "Send a command and read the response",
	Long: `Send a command to the addressed device and print its response.

A trailing newline is stripped from the response before printing. The
read size defaults to 1024 bytes; raise --max-len for instruments that
return long blocks.

Example usage:
  gpibctl --sim query "*IDN?" --pad 22
  gpibctl query "MEAS:VOLT:DC?" --pad 9 --timeout 3s
  gpibctl query "CURV?" --pad 4 --max-len 65536 --hex`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		maxLen, _ := cmd.Flags().GetInt("max-len")
		hexOut, _ := cmd.Flags().GetBool("hex")

		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var response []byte
		err = dev.Session(context.Background(), func(ctx context.Context) error {
			if err := dev.Write(ctx, []byte(args[0])); err != nil {
				return fmt.Errorf("writing command: %w", err)
			}
			data, err := dev.Read(ctx, maxLen)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			response = data
			return nil
		})
		if err != nil {
			if errors.Is(err, gpib.ErrTimeout) {
				fmt.Fprintf(os.Stderr, "Error: %v (is the device at %s responding?)\n", err, dev.ID())
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if hexOut {
			fmt.Printf("% X\n", response)
			return
		}
		for len(response) > 0 && (response[len(response)-1] == '\n' || response[len(response)-1] == '\r') {
			response = response[:len(response)-1]
		}
		fmt.Println(string(response))
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Int("max-len", 1024, "Maximum number of bytes to read")
	queryCmd.Flags().BoolP("hex", "x", false, "Print the response as hexadecimal")
}
