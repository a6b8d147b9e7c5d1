package cli

import (
	"fmt"
	"time"

	infraMinio "syntagma/internal/infra/minio"

	"github.com/spf13/cobra"
)

// NewSnapshotsCommand 查看条文快照归档
func NewSnapshotsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect archived article snapshots",
	}

	var (
		prefix string
		expiry time.Duration
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List article snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := infraMinio.New(&cfg.MinIO)
			if err != nil {
				return err
			}

			names, err := store.ListSnapshots(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, name := range names {
				if expiry <= 0 {
					fmt.Fprintln(cmd.OutOrStdout(), name)
					continue
				}
				url, err := store.PresignedURL(cmd.Context(), name, expiry)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, url)
			}
			return nil
		},
	}
	list.Flags().StringVar(&prefix, "prefix", "articles/", "object name prefix")
	list.Flags().DurationVar(&expiry, "url-expiry", 0, "also print a presigned download URL valid for this long")

	cmd.AddCommand(list)
	return cmd
}
