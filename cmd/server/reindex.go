package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"people_api/internal/service"
	"people_api/pkg/log"

	"github.com/spf13/cobra"
)

func newReindexCmd(configPath *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "把已发布的人员和目录写入 Elasticsearch 并清理目录缓存",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()
			if a.es == nil {
				return errors.New("elasticsearch.addresses is not configured")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			n, err := service.NewReindexService(a.postRepo, a.es, cfg.Content).Reindex(ctx)
			if err != nil {
				log.Error("Reindex failed", err)
				return err
			}
			if err := a.invalidateDirectoryCache(ctx); err != nil {
				log.Warnf("%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "整个重建过程的超时时间")
	return cmd
}
