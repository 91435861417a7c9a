/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"context"
	"fmt"
	"os"

	gpib "github.com/allbin/go-gpib"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the bus for listening devices",
	Long: `Scan the bus for devices that acknowledge being addressed to listen.

Each primary address from 1 to 30 is probed; addresses that respond are
reported. With --idn each found device is additionally sent "*IDN?" and
its identification string shown.

Example usage:
  gpibctl scan
  gpibctl --sim scan --idn --table`,
	Run: func(cmd *cobra.Command, args []string) {
		board, err := openBoard()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		askIDN, _ := cmd.Flags().GetBool("idn")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ctx := context.Background()
		type found struct {
			pad int
			idn string
		}
		var devices []found

		err = board.Session(ctx, func(ctx context.Context) error {
			for pad := 1; pad <= 30; pad++ {
				present, err := board.Listener(ctx, pad, 0)
				if err != nil {
					return fmt.Errorf("probing address %d: %w", pad, err)
				}
				if !present {
					continue
				}
				devices = append(devices, found{pad: pad})
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if askIDN {
			for i := range devices {
				devices[i].idn = queryIDN(ctx, devices[i].pad)
			}
		}

		if len(devices) == 0 {
			fmt.Println("No listeners found on the bus")
			return
		}

		if tableFormat {
			columns := []table.Column{
				table.NewColumn("pad", "Address", 9),
				table.NewColumn("idn", "Identification", 44),
			}
			var rows []table.Row
			for _, d := range devices {
				rows = append(rows, table.NewRow(table.RowData{
					"pad": d.pad,
					"idn": d.idn,
				}))
			}
			t := table.New(columns).WithRows(rows).BorderRounded()
			fmt.Printf("Found %d device(s):\n\n%s\n", len(devices), t.View())
			return
		}

		padStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
		for _, d := range devices {
			if d.idn != "" {
				fmt.Printf("%s  %s\n", padStyle.Render(fmt.Sprintf("pad %2d", d.pad)), d.idn)
			} else {
				fmt.Println(padStyle.Render(fmt.Sprintf("pad %2d", d.pad)))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("idn", false, "Query *IDN? on every device found")
	scanCmd.Flags().Bool("table", false, "Display output in a styled table format")
}

// queryIDN asks one device for its identification, best effort.
func queryIDN(ctx context.Context, pad int) string {
	drv, err := newDriver()
	if err != nil {
		return ""
	}
	board, err := parseBoard()
	if err != nil {
		return ""
	}
	opts := deviceOptions()
	dev, err := gpib.NewDevice(drv, board, pad, opts...)
	if err != nil {
		return ""
	}

	var idn string
	_ = dev.Session(ctx, func(ctx context.Context) error {
		if err := dev.Write(ctx, []byte("*IDN?")); err != nil {
			return err
		}
		data, err := dev.Read(ctx, 256)
		if err != nil {
			return err
		}
		idn = string(data)
		return nil
	})
	return idn
}
