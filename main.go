// ABOUTME: Entry point for the loopdeck media player
// ABOUTME: Cobra CLI resolving flags and config into the deck application
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopdeck/loopdeck-go/internal/app"
	"github.com/loopdeck/loopdeck-go/internal/config"
	"github.com/loopdeck/loopdeck-go/internal/log"
	"github.com/loopdeck/loopdeck-go/internal/version"
)

var (
	flagFrames     string
	flagFrameRate  float64
	flagBackend    string
	flagVolume     float64
	flagRemotePort int
	flagNoMDNS     bool
	flagNoTUI      bool
	flagTone       bool
	flagResume     bool
	flagName       string
	flagLogFile    string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "loopdeck [media file]",
	Short: "Synchronized loop playback deck for audio and frame-sequence video",
	Long: `Loopdeck plays a media clip phase-locked to a sample-accurate master
clock, with seek, loop, trim window and speed control. Video frames, when a
frame directory is supplied, follow the same clock as the audio.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Setup(); err != nil {
			return err
		}

		cfg := resolveConfig(cmd, args)

		logFile := flagLogFile
		if !cmd.Flags().Changed("log-file") && config.LogFile() != "" {
			logFile = config.LogFile()
		}
		logLevel := flagLogLevel
		if !cmd.Flags().Changed("log-level") {
			logLevel = config.LogLevel()
		}
		closeLog, err := log.Setup(log.Options{
			FilePath: logFile,
			Stderr:   cfg.NoTUI,
			Level:    logLevel,
		})
		if err != nil {
			return err
		}
		defer closeLog()

		deck := app.New(cfg)
		if err := deck.Start(); err != nil {
			return err
		}
		defer deck.Stop()

		return deck.Run()
	},
}

// resolveConfig merges flags over persisted configuration.
func resolveConfig(cmd *cobra.Command, args []string) app.Config {
	cfg := app.Config{
		FramesDir:  flagFrames,
		FrameRate:  flagFrameRate,
		Backend:    flagBackend,
		Volume:     flagVolume,
		RemotePort: flagRemotePort,
		EnableMDNS: !flagNoMDNS,
		NoTUI:      flagNoTUI,
		Tone:       flagTone,
		Name:       flagName,
	}

	if !cmd.Flags().Changed("backend") {
		cfg.Backend = config.Backend()
	}
	if !cmd.Flags().Changed("volume") {
		cfg.Volume = config.Volume()
	}
	if !cmd.Flags().Changed("remote-port") {
		cfg.RemotePort = config.RemotePort()
	}
	if !flagNoMDNS {
		cfg.EnableMDNS = config.MDNSEnabled()
	}

	if len(args) == 1 {
		cfg.MediaPath = args[0]
	} else if flagResume {
		cfg.MediaPath = config.LastPath()
		if cfg.FramesDir == "" {
			cfg.FramesDir = config.LastFrames()
		}
	}

	if cfg.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Name = fmt.Sprintf("%s-loopdeck", hostname)
	}

	return cfg
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("%s %s\n", version.Product, version.Version)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagFrames, "frames", "F", "", "Directory of numbered image frames forming the video track")
	rootCmd.Flags().Float64Var(&flagFrameRate, "frame-rate", 0, "Frame rate of the frame directory (default 30)")
	rootCmd.Flags().StringVarP(&flagBackend, "backend", "b", "malgo", "Audio backend: malgo or oto")
	rootCmd.Flags().Float64Var(&flagVolume, "volume", 1.0, "Output volume 0..1")
	rootCmd.Flags().IntVarP(&flagRemotePort, "remote-port", "p", 0, "Remote control port (conventionally 8937), 0 disables the remote")
	rootCmd.Flags().BoolVar(&flagNoMDNS, "no-mdns", false, "Do not advertise the remote via mDNS")
	rootCmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "Run headless, without the terminal UI")
	rootCmd.Flags().BoolVar(&flagTone, "tone", false, "Play the built-in test tone instead of a file")
	rootCmd.Flags().BoolVarP(&flagResume, "resume", "c", false, "Reopen the media from the previous session")
	rootCmd.Flags().StringVarP(&flagName, "name", "n", "", "Deck name shown to remotes (default: hostname-loopdeck)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Log file path")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
