package cli

import (
	"fmt"

	"syntagma/internal/indexer"
	infraES "syntagma/internal/infra/elasticsearch"
	"syntagma/internal/repository"

	"github.com/spf13/cobra"
)

// NewReindexCommand 从数据库全量重建评论搜索索引
func NewReindexCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the comment search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db, err := opts.openDatabase(cfg)
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			es, err := infraES.NewClient(cfg.Elasticsearch.Hosts)
			if err != nil {
				return err
			}
			index := infraES.NewCommentIndex(es, cfg.Elasticsearch.CommentsIndex())
			if err := index.EnsureIndex(cmd.Context()); err != nil {
				return err
			}

			n, err := indexer.New(index).Reindex(cmd.Context(), repository.NewCommentRepository(db))
			if err != nil {
				return fmt.Errorf("reindex stopped after %d comments: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d comments into %s\n", n, cfg.Elasticsearch.CommentsIndex())
			return nil
		},
	}
}
