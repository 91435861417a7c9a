/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	gpib "github.com/allbin/go-gpib"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gpibctl",
	Short: "Control GPIB (IEEE-488) instruments",
	Long: `gpibctl talks to GPIB (IEEE-488) instruments through a controller board.

The target device is selected with --board and --pad (primary address),
optionally --sad (secondary address). Defaults can also come from a config
file (~/.gpibctl.yaml) or GPIB_* environment variables.

Hardware access goes through a Driver implementation; the built-in
simulated bus (--sim) provides a scripted instrument for trying commands
without a board attached.

Example usage:
  gpibctl list --table
  gpibctl --sim query "*IDN?" --pad 22
  gpibctl --board gpib0 --pad 9 send "SYST:REM"
  gpibctl --sim console --pad 22`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gpibctl.yaml)")
	rootCmd.PersistentFlags().StringP("board", "b", "gpib0", "Controller board: name, index or device path")
	rootCmd.PersistentFlags().IntP("pad", "a", -1, "Primary address of the target device (0-30)")
	rootCmd.PersistentFlags().Int("sad", 0, "Secondary address (0x60-0x7e, 0 = none)")
	rootCmd.PersistentFlags().DurationP("timeout", "t", 10*time.Second, "Bus timeout for each operation")
	rootCmd.PersistentFlags().Bool("sim", false, "Use the built-in simulated bus instead of hardware")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging to stderr")

	for _, flag := range []string{"board", "pad", "sad", "timeout", "sim", "verbose"} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".gpibctl")
	}

	viper.SetEnvPrefix("GPIB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the slog logger passed into the library. Debug level
// only with --verbose, discarded otherwise.
func newLogger() *slog.Logger {
	if !viper.GetBool("verbose") {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newDriver selects the bus driver. Hardware drivers are provided by
// the embedding application; gpibctl itself ships the simulated bus.
func newDriver() (gpib.Driver, error) {
	if viper.GetBool("sim") {
		return demoBus(), nil
	}
	return nil, fmt.Errorf("no hardware driver is built into gpibctl; run with --sim, or embed the library with your driver")
}

// demoBus builds a simulated bus with a scripted instrument on every
// address gpibctl's examples use.
func demoBus() *gpib.SimBus {
	bus := gpib.NewSimBus()

	// A multimeter that answers identification and measurement queries.
	bus.Attach(22, gpib.NewSimInstrument(func(request []byte) []byte {
		switch string(request) {
		case "*IDN?":
			return []byte("ALLBIN,SimDMM-2040,0,1.0")
		case "MEAS:VOLT:DC?":
			return []byte("+1.284730E+00")
		case "MEAS:CURR:DC?":
			return []byte("+3.100000E-03")
		case "*OPC?":
			return []byte("1")
		default:
			return nil
		}
	}))

	// A counter that identifies itself but stays otherwise silent.
	bus.Attach(9, gpib.NewSimInstrument(func(request []byte) []byte {
		if string(request) == "*IDN?" {
			return []byte("ALLBIN,SimCounter-53220,0,0.3")
		}
		return nil
	}))

	return bus
}

// parseBoard resolves the configured board designator.
func parseBoard() (gpib.Board, error) {
	return gpib.ParseBoard(viper.GetString("board"))
}

// deviceOptions collects the configured session options.
func deviceOptions() []gpib.Option {
	opts := []gpib.Option{
		gpib.WithTimeout(viper.GetDuration("timeout")),
		gpib.WithLogger(newLogger()),
	}
	if sad := viper.GetInt("sad"); sad != 0 {
		opts = append(opts, gpib.WithSecondaryAddress(sad))
	}
	return opts
}

// openDevice builds the Device for the configured board and address.
// The caller owns the returned device and must Connect/Close it.
func openDevice() (*gpib.Device, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	board, err := parseBoard()
	if err != nil {
		return nil, err
	}
	pad := viper.GetInt("pad")
	if pad < 0 {
		return nil, fmt.Errorf("no device address: set --pad (or GPIB_PAD)")
	}
	return gpib.NewDevice(drv, board, pad, deviceOptions()...)
}

// openBoard builds a board-level Device for interface commands.
func openBoard() (*gpib.Device, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	board, err := parseBoard()
	if err != nil {
		return nil, err
	}
	return gpib.NewBoard(drv, board, deviceOptions()...)
}
