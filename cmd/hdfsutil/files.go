package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/discochess/hdfsutil"
)

var lsCmd = &cobra.Command{
	Use:   "ls [DIR]",
	Short: "List a remote directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "/"
		if len(args) == 1 {
			dir = args[0]
		}
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			entries, err := client.List(ctx, dir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				kind, size := "-", humanize.Bytes(uint64(e.Size))
				if e.IsDir {
					kind, size = "d", "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", kind, size, e.ModTime.Format("2006-01-02 15:04"), e.Path)
			}
			return tw.Flush()
		})
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists PATH",
	Short: "Report whether a remote path exists",
	Long: `Print true or false. The command fails only when the check itself
fails, for example when the backend cannot be reached.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			ok, err := client.Exists(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir DIR",
	Short: "Create a remote directory and its parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			return client.Mkdir(ctx, args[0])
		})
	},
}

var recursive bool

var rmCmd = &cobra.Command{
	Use:   "rm PATH",
	Short: "Delete a remote file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			if recursive {
				return client.DeleteRecursive(ctx, args[0])
			}
			return client.Delete(ctx, args[0])
		})
	},
}

var catCodec string

var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print a remote file, optionally decompressing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			return client.DecompressToStdout(ctx, catCodec, args[0])
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put LOCAL REMOTE",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			return client.CopyFromLocal(ctx, args[0], args[1])
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get REMOTE LOCAL",
	Short: "Download a remote file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			return client.CopyToLocal(ctx, args[0], args[1])
		})
	},
}

var getmergeCmd = &cobra.Command{
	Use:   "getmerge DIR LOCAL",
	Short: "Concatenate the files of a remote directory into one local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
			return client.ConcatToLocal(ctx, args[0], args[1])
		})
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete directories and their contents")
	catCmd.Flags().StringVar(&catCodec, "codec", "none", "codec to decompress with")
	rootCmd.AddCommand(lsCmd, existsCmd, mkdirCmd, rmCmd, catCmd, putCmd, getCmd, getmergeCmd)
}
