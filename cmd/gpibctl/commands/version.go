/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cliVersion is stamped by the release build.
var cliVersion = "dev"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show gpibctl and driver versions",
	Long: `Show the gpibctl version and, when a driver is available, the version
string reported by the underlying GPIB driver.

Example usage:
  gpibctl version
  gpibctl --sim version`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gpibctl %s\n", cliVersion)

		drv, err := newDriver()
		if err != nil {
			return
		}
		v, err := drv.Version()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading driver version: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("driver: %s\n", v)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
