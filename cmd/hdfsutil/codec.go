package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/discochess/hdfsutil"
	"github.com/discochess/hdfsutil/internal/codec"
	"github.com/discochess/hdfsutil/internal/codec/builtin"
)

var compressCmd = &cobra.Command{
	Use:   "compress CODEC SRC [DST]",
	Short: "Compress a remote file",
	Long: `Compress SRC with CODEC and write the result to DST, which defaults to
SRC plus the codec's extension.

CODEC is a codec name, an alias or a Hadoop codec class name such as
org.apache.hadoop.io.compress.GzipCodec. Run 'hdfsutil codecs' for the list.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runCompress,
}

var (
	decompressCodec string
	atomicWrites    bool
)

var decompressCmd = &cobra.Command{
	Use:   "decompress SRC [DST]",
	Short: "Decompress a remote file",
	Long: `Decompress SRC. With --codec auto (the default) the codec is picked from
the extension of SRC and the output is written next to it without the
extension; DST is not accepted. With an explicit codec, DST is required.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDecompress,
}

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List the available codecs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEXTENSION\tALIASES")
		for _, c := range builtin.NewRegistry().Registrations() {
			ext := "-"
			if c.Extension != "" {
				ext = "." + c.Extension
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, ext, strings.Join(c.Aliases, ", "))
		}
		return tw.Flush()
	},
}

func init() {
	for _, cmd := range []*cobra.Command{compressCmd, decompressCmd} {
		cmd.Flags().BoolVar(&atomicWrites, "atomic", false, "write to a temporary file and rename it into place")
	}
	decompressCmd.Flags().StringVar(&decompressCodec, "codec", "auto", "codec to decompress with, or auto")
	rootCmd.AddCommand(compressCmd, decompressCmd, codecsCmd)
}

func clientOptions() []hdfsutil.Option {
	if atomicWrites {
		return []hdfsutil.Option{hdfsutil.WithAtomicWrites()}
	}
	return nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	codecID, src := args[0], args[1]
	return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
		dst := ""
		if len(args) == 3 {
			dst = args[2]
		} else {
			c, err := builtin.NewRegistry().Resolve(codecID)
			if err != nil {
				return err
			}
			dst = src + codec.Suffix(c)
		}
		if err := client.CompressFile(ctx, codecID, src, dst); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	}, clientOptions()...)
}

func runDecompress(cmd *cobra.Command, args []string) error {
	src := args[0]
	auto := decompressCodec == "" || decompressCodec == "auto"
	switch {
	case auto && len(args) == 2:
		return fmt.Errorf("DST is not accepted with --codec auto")
	case !auto && len(args) == 1:
		return fmt.Errorf("DST is required with --codec %s", decompressCodec)
	}

	return withClient(cmd, func(ctx context.Context, client *hdfsutil.Client) error {
		dst := ""
		if auto {
			var err error
			if dst, err = client.DecompressByExtension(ctx, src); err != nil {
				return err
			}
		} else {
			dst = args[1]
			if err := client.DecompressFile(ctx, decompressCodec, src, dst); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	}, clientOptions()...)
}
