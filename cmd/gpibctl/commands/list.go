/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"fmt"
	"os"

	gpib "github.com/allbin/go-gpib"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List GPIB controller boards",
	Long: `List the GPIB controller boards present on the system.

This command scans /dev for gpib character devices (gpib0, gpib1, ...)
and reports whether the current user may open them for I/O. Missing
access usually means the user is not in the gpib group.

Example usage:
  gpibctl list
  gpibctl list --table`,
	Run: func(cmd *cobra.Command, args []string) {
		boards, err := gpib.ListBoards()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing boards: %v\n", err)
			os.Exit(1)
		}

		if len(boards) == 0 {
			fmt.Println("No GPIB boards found")
			return
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if tableFormat {
			renderBoardTable(boards)
			return
		}

		for _, path := range boards {
			info, err := gpib.GetBoardInfo(path)
			if err != nil {
				continue
			}
			access := "no access"
			if info.Accessible {
				access = "ok"
			}
			fmt.Printf("%s  (%s, %s)\n", info.Path, info.Name, access)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("table", false, "Display output in a styled table format")
}

// renderBoardTable renders the board list in a styled static table
func renderBoardTable(boards []string) {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	noStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	columns := []table.Column{
		table.NewColumn("name", "Board", 10),
		table.NewColumn("path", "Path", 16),
		table.NewColumn("index", "Index", 7),
		table.NewColumn("access", "Access", 10),
	}

	var rows []table.Row
	for _, path := range boards {
		info, err := gpib.GetBoardInfo(path)
		if err != nil {
			continue
		}
		access := noStyle.Render("denied")
		if info.Accessible {
			access = okStyle.Render("ok")
		}
		rows = append(rows, table.NewRow(table.RowData{
			"name":   info.Name,
			"path":   info.Path,
			"index":  info.Index,
			"access": access,
		}))
	}

	t := table.New(columns).
		WithRows(rows).
		BorderRounded()

	fmt.Printf("Found %d GPIB board(s):\n\n", len(rows))
	fmt.Println(t.View())
}
