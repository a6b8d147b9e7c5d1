// Package cli syntagmactl 管理命令
package cli

import (
	"fmt"

	"syntagma/internal/config"
	"syntagma/internal/infra/database"
	"syntagma/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	SQLitePath string
}

// NewRootCommand 创建 syntagmactl 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "syntagmactl",
		Short:        "Syntagma administration tool",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "configs/config.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite", "", "use a SQLite database file instead of PostgreSQL")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTOTPSecretCommand())
	cmd.AddCommand(NewHashPasswordCommand())
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))

	return cmd
}

// loadConfig 加载配置并初始化日志
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// openDatabase 打开数据库并迁移表结构，调用方负责关闭
func (o *RootOptions) openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if o.SQLitePath != "" {
		return database.OpenSQLite(o.SQLitePath)
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, err
	}
	db := database.Get()
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
