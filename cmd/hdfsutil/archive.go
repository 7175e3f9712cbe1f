package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/discochess/hdfsutil"
)

var archiveCmd = &cobra.Command{
	Use:   "archive ROOT OUTPUT",
	Short: "Pack a remote directory tree into a local zip file",
	Long: `Pack the tree below ROOT into the zip file OUTPUT.

Directories that cannot be listed and files that cannot be read are skipped
and reported; the archive still holds everything else. Entry names are base
names, with "_0.xlsx" renamed to ".xlsx". Use --path-names to keep the path
below ROOT instead.

Examples:
  # Archive /data
  hdfsutil archive /data data.zip

  # Fail when anything was skipped
  hdfsutil archive --strict /data data.zip`,
	Args: cobra.ExactArgs(2),
	RunE: runArchive,
}

var (
	pathNames bool
	strict    bool
)

func init() {
	archiveCmd.Flags().BoolVar(&pathNames, "path-names", false, "name entries by their path below ROOT")
	archiveCmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when anything was skipped")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	var opts []hdfsutil.Option
	if pathNames {
		opts = append(opts, hdfsutil.WithPathNames())
	}

	return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
		sum, err := client.ArchiveToFile(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Archive:  %s\n", args[1])
		fmt.Fprintf(out, "Dirs:     %d\n", sum.Dirs)
		fmt.Fprintf(out, "Files:    %d\n", sum.Files)
		fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(sum.Bytes)))

		if !sum.Partial() {
			return nil
		}
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "Skipped:  %d directories, %d files\n", sum.SkippedSubtrees, sum.FailedFiles)
		for _, s := range sum.Skipped {
			fmt.Fprintf(errOut, "  %s\n", s)
		}
		if strict {
			return fmt.Errorf("archive of %s is partial", args[0])
		}
		return nil
	}, opts...)
}
