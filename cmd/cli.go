// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/app"
	"lipsync/internal/config"
	"lipsync/internal/log"
	"lipsync/pkg/build"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	verbose    bool
	logLevel   string
	tui        bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Drive an avatar's mouth from speech audio or text",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to the YAML config file. Defaults to "+strings.Join(config.SearchPaths, " or ")+" in the working directory.")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&opts.tui, "tui", "t", false,
		"Show the animated mouth in the terminal")

	rootCmd.AddCommand(
		newListenCommand(opts),
		newSpeakCommand(opts),
		newAnalyzeCommand(opts),
		newDevicesCommand(opts),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// load reads the configuration and applies the persistent flags over it.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("tui") {
		cfg.TUIMode = o.tui
	}
	switch {
	case o.verbose:
		cfg.LogLevel = log.LevelDebug.String()
	case o.logLevel != "":
		cfg.LogLevel = o.logLevel
	case cfg.Debug:
		cfg.LogLevel = log.LevelDebug.String()
	}

	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	log.SetLevel(level)
	if cfg.TUIMode && level > log.LevelDebug && level < log.LevelError {
		// Keep the terminal for the mouth view.
		log.SetLevel(log.LevelError)
	}
	return cfg, nil
}

func newListenCommand(opts *options) *cobra.Command {
	var device int
	var record bool

	c := &cobra.Command{
		Use:   "listen",
		Short: "Animate from the microphone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("device") {
				cfg.Audio.InputDevice = device
			}
			if cmd.Flags().Changed("record") {
				cfg.Recording.Enabled = record
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return app.Listen(cmd.Context(), cfg)
		},
	}
	c.Flags().IntVarP(&device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	c.Flags().BoolVarP(&record, "record", "r", false,
		"Record the microphone to the configured output directory")
	return c
}

func newSpeakCommand(opts *options) *cobra.Command {
	var command string

	c := &cobra.Command{
		Use:   "speak <text...>",
		Short: "Speak text and animate it word by word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("command") {
				cfg.Speech.Command = command
			}
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to speak")
			}
			return app.Speak(cmd.Context(), cfg, text, app.NewSynthesizer(cfg))
		},
	}
	c.Flags().StringVar(&command, "command", "",
		"Speech program to run, e.g. espeak or say. Empty speaks silently.")
	return c
}

func newAnalyzeCommand(opts *options) *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Print the mouth shapes of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			summary, err := app.Analyze(cmd.Context(), cfg, args[0], out, asJSON)
			if err != nil {
				return err
			}
			if !asJSON {
				writeSummary(cmd.ErrOrStderr(), summary)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Write one JSON object per change")
	return c
}

func writeSummary(w io.Writer, s app.Summary) {
	fmt.Fprintf(w, "\n%v analysed in %d frames, %d changes\n", s.Duration, s.Frames, s.Changes)
}

func newDevicesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices (with --tui, pick one interactively)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return app.Devices(cmd.OutOrStdout(), cfg.TUIMode, nil)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.GetBuildFlags())
		},
	}
}
