package cmd

import (
	"fmt"

	"github.com/angelospk/subgrabber/pkg/core/fileops"
	"github.com/angelospk/subgrabber/pkg/core/metadata"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash <media-file>",
	Short: "Print the OpenSubtitles hash and size of a file",
	Long: `Computes the OpenSubtitles movie hash of a file without contacting the service,
and shows what could be guessed about the release from its file name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fp, err := fileops.CalculateOSDbHash(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "hash: %s\n", fp.HashString())
		fmt.Fprintf(out, "size: %d bytes\n", fp.Size)

		release := metadata.ParseRelease(args[0])
		fmt.Fprintf(out, "title: %s\n", release.Title)
		if release.Year > 0 {
			fmt.Fprintf(out, "year: %d\n", release.Year)
		}
		if release.Season > 0 || release.Episode > 0 {
			fmt.Fprintf(out, "episode: S%02dE%02d\n", release.Season, release.Episode)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(hashCmd)
}
