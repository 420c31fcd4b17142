// ABOUTME: Command-line remote for a running deck
// ABOUTME: Sends one transport command over the websocket and prints status
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopdeck/loopdeck-go/internal/remote"
)

var flagAddr string

func dial() (*remote.Client, error) {
	return remote.Dial(flagAddr)
}

// send issues one command and waits for the resulting status.
func send(cmd remote.Command) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Send(cmd); err != nil {
		return err
	}

	select {
	case snap := <-c.Status:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	case e := <-c.Errors:
		return fmt.Errorf("%s: %s", e.Error, e.Message)
	case <-time.After(3 * time.Second):
		return fmt.Errorf("no reply from deck")
	}
}

func parseFloatArg(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", arg)
	}
	return v, nil
}

var rootCmd = &cobra.Command{
	Use:   "loopdeck-remote",
	Short: "Control a running loopdeck over the network",
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(remote.Command{Command: remote.CmdPlay})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(remote.Command{Command: remote.CmdPause})
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <pos>",
	Short: "Seek to a normalized position in [0,1]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parseFloatArg(args[0])
		if err != nil {
			return err
		}
		return send(remote.Command{Command: remote.CmdSeek, Pos: &pos})
	},
}

var loopCmd = &cobra.Command{
	Use:   "loop <on|off>",
	Short: "Enable or disable looping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := args[0] == "on"
		if !enabled && args[0] != "off" {
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		return send(remote.Command{Command: remote.CmdLoop, Enabled: &enabled})
	},
}

var trimCmd = &cobra.Command{
	Use:   "trim <start> <end>",
	Short: "Set the normalized trim window",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseFloatArg(args[0])
		if err != nil {
			return err
		}
		end, err := parseFloatArg(args[1])
		if err != nil {
			return err
		}
		return send(remote.Command{Command: remote.CmdTrim, Start: &start, End: &end})
	},
}

var speedCmd = &cobra.Command{
	Use:   "speed <ratio>",
	Short: "Set the playback speed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ratio, err := parseFloatArg(args[0])
		if err != nil {
			return err
		}
		return send(remote.Command{Command: remote.CmdSpeed, Ratio: &ratio})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <level>",
	Short: "Set the output volume in [0,1]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloatArg(args[0])
		if err != nil {
			return err
		}
		return send(remote.Command{Command: remote.CmdVolume, Volume: &v})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a media file on the deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(remote.Command{Command: remote.CmdOpen, Path: args[0]})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the deck's current status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(remote.Command{Command: remote.CmdStatus})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream status updates until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		fmt.Printf("connected to %s (%s)\n", c.Hello().Name, c.Hello().ServerID)
		for {
			select {
			case snap := <-c.Status:
				fmt.Printf("%s %s pos=%.3f speed=%.2f loop=%v\n",
					snap.State, snap.Source, snap.Normalized, snap.Speed, snap.Loop)
			case <-c.Done():
				return nil
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAddr, "addr", "a", "localhost:8937", "Deck address host:port")
	rootCmd.AddCommand(playCmd, pauseCmd, seekCmd, loopCmd, trimCmd, speedCmd, volumeCmd, openCmd, statusCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
