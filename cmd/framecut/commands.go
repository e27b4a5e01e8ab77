package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/ffmpeg"
	"github.com/framecut/framecut-agent/internal/media"
)

func newCodecsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "List the selectable codecs and the containers that hold them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			m := media.DefaultMatrix

			printf(out, "Video codecs:\n")
			for _, o := range media.VideoOptions {
				codec, _ := media.ParseVideoCodec(o.Value)
				printf(out, "  %-6s %-12s %s\n", o.Value, o.Label, strings.Join(media.Strings(m.Video(codec)), ", "))
			}
			printf(out, "Audio codecs:\n")
			for _, o := range media.AudioOptions {
				codec, _ := media.ParseAudioCodec(o.Value)
				printf(out, "  %-6s %-12s %s\n", o.Value, o.Label, strings.Join(media.Strings(m.Audio(codec)), ", "))
			}
			return nil
		},
	}
}

var (
	compatVideo   string
	compatAudio   string
	compatCurrent string
	compatJSON    bool
)

type compatOutput struct {
	Video      media.VideoCodec  `json:"video"`
	Audio      media.AudioCodec  `json:"audio"`
	Compatible []media.Container `json:"compatible"`
	Ranked     []media.Container `json:"ranked"`
	Warning    string            `json:"warning,omitempty"`
	Alert      bool              `json:"alert"`
}

func newCompatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Show the containers that can hold a video/audio codec pair",
		Long: `Intersects the container rows of a video and an audio codec.
With --current the list is ranked for a file of that container and the
save dialog warning is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			video, ok := media.ParseVideoCodec(compatVideo)
			if !ok {
				return fmt.Errorf("unknown video codec %q", compatVideo)
			}
			audio, ok := media.ParseAudioCodec(compatAudio)
			if !ok {
				return fmt.Errorf("unknown audio codec %q", compatAudio)
			}
			current := media.Container(strings.ToLower(strings.TrimPrefix(compatCurrent, ".")))

			compatible := media.NewResolver(nil).Compatible(video, audio)
			res := compatOutput{
				Video:      video,
				Audio:      audio,
				Compatible: compatible,
				Ranked:     media.Rank(compatible, current),
			}
			if current != "" {
				res.Warning, res.Alert = media.Warning(compatible, current)
			}

			out := cmd.OutOrStdout()
			if compatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if len(compatible) == 0 {
				printf(out, "no container supports %s with %s\n", video, audio)
				return nil
			}
			printf(out, "compatible: %s\n", strings.Join(media.Strings(res.Compatible), ", "))
			printf(out, "ranked:     %s\n", strings.Join(media.Strings(res.Ranked), ", "))
			if res.Warning != "" {
				printf(out, "\n%s\n", res.Warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&compatVideo, "video", "auto", "video codec")
	cmd.Flags().StringVar(&compatAudio, "audio", "auto", "audio codec")
	cmd.Flags().StringVar(&compatCurrent, "current", "", "container of the file being edited")
	cmd.Flags().BoolVar(&compatJSON, "json", false, "print JSON")
	return cmd
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Print the stream metadata the editor reads from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cliLogger(cmd)
			runner, err := newRunner(logger)
			if err != nil {
				return err
			}
			probe, err := ffmpeg.NewProber(runner, 0).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(probe)
		},
	}
}
