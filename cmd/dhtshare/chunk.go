package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dhtshare/internal/filechunk"
)

func newChunkCmd(opts *rootOptions) *cobra.Command {
	var (
		size   int
		digest string
	)

	cmd := &cobra.Command{
		Use:   "chunk <path>",
		Short: "ファイルを分割して各チャンクのダイジェストを表示する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			files := opts.cfg.Files
			if cmd.Flags().Changed("size") {
				files.ChunkSize = size
			}
			if cmd.Flags().Changed("digest") {
				files.Digest = digest
			}

			d, err := filechunk.ParseDigest(files.Digest)
			if err != nil {
				return err
			}
			chunks, err := filechunk.SplitChunks(path, files.ChunkSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range chunks {
				sum, err := filechunk.HashWith(d, c.Data)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%6d  %12d  %8d  %s\n", c.Index, c.Offset, len(c.Data), sum)
			}

			total, err := filechunk.HashFile(d, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d chunks, %s %s\n", len(chunks), string(d), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", filechunk.DefaultChunkSize, "チャンクサイズ (バイト)")
	cmd.Flags().StringVar(&digest, "digest", string(filechunk.DigestSHA256), "ダイジェスト (sha256, blake3)")
	return cmd
}
