// ABOUTME: Media inspection tool: prints what the deck would see in a file
// ABOUTME: Optionally decodes to the end to resolve unknown lengths
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopdeck/loopdeck-go/internal/media"
)

var (
	flagFrames    string
	flagFrameRate float64
	flagFull      bool
	flagJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "loopdeck-probe <media file>",
	Short: "Inspect a media file the way loopdeck opens it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		src, err := media.OpenClip(path, media.ClipOptions{
			FramesDir: flagFrames,
			FrameRate: flagFrameRate,
		})
		if err != nil {
			return err
		}
		defer src.Close()

		if flagFull {
			if err := decodeToEnd(src); err != nil {
				return err
			}
		}

		info := media.Describe(path, src)

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "path:          %s\n", info.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "sample rate:   %d Hz\n", info.SampleRate)
		fmt.Fprintf(cmd.OutOrStdout(), "channels:      %d\n", info.Channels)
		if info.TotalSamples > 0 {
			secs := float64(info.TotalSamples) / float64(info.SampleRate)
			fmt.Fprintf(cmd.OutOrStdout(), "length:        %d samples (%.2fs)\n", info.TotalSamples, secs)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "length:        unknown (use --full to decode to the end)\n")
		}
		if info.FrameRate > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "video:         %d frames at %.2f fps\n", info.TotalFrames, info.FrameRate)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "video:         none\n")
		}
		return nil
	},
}

// decodeToEnd reads audio forward until EOF so TotalSamples resolves.
func decodeToEnd(src *media.ClipSource) error {
	buf := make([]float32, 65536)
	var pos int64
	for {
		n, err := src.ReadAudio(pos, buf)
		pos += int64(n)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagFrames, "frames", "F", "", "Frame directory to include in the report")
	rootCmd.Flags().Float64Var(&flagFrameRate, "frame-rate", 0, "Frame rate of the frame directory")
	rootCmd.Flags().BoolVar(&flagFull, "full", false, "Decode the whole stream to resolve unknown lengths")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
