// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"emberlight/internal/config"
	"emberlight/pkg/build"
)

// Options is the resolved command line state handed back to main.
type Options struct {
	Config  *config.Config
	Command string // one-off command ("list"), empty to run the engine
	Monitor bool   // show the pulse monitor TUI
	Record  bool
	Output  string
}

// ParseArgs parses command line arguments on top of the loaded
// configuration.
func ParseArgs() (*Options, error) {
	buildInfo := build.GetInfo()
	opts := &Options{}

	var configPath string
	var preset string
	var deviceID int
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Audio-reactive transient detection engine",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if preset != "" {
				cfg.Detect.Preset = preset
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			opts.Config = cfg
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML configuration file")
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	rootCmd.PersistentFlags().StringVarP(&preset, "preset", "p", "",
		"Detection preset: quiet, loud or live")
	rootCmd.PersistentFlags().BoolVarP(&opts.Monitor, "monitor", "m", false,
		"Show the live pulse monitor")
	rootCmd.PersistentFlags().BoolVarP(&opts.Record, "record", "r", false,
		"Record the input stream to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "",
		"Recording file name. Default is capture-DD-MM-YYYY-HHMMSS.wav")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return opts, nil
}
