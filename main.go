// @title 农业培训门户 API
// @version 1.0
// @description 棉花、奶业培训资料浏览、测验、播种量计算和 PMU 数据管理。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"agri_training_backend/internal/app"
	"agri_training_backend/internal/config"
	"agri_training_backend/pkg/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		migrateOnly bool
		resetDemo   bool
	)

	cmd := &cobra.Command{
		Use:           "agri-training",
		Short:         "Agricultural training portal API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.MigrateOnly = migrateOnly
			cfg.ResetDemo = resetDemo

			// 迁移完成后直接退出
			if migrateOnly {
				logger.InitLogger(cfg)
				defer logger.Log.Sync()
				if _, err := app.Bootstrap(cfg); err != nil {
					return err
				}
				logger.Log.Info("数据库迁移完成，退出程序")
				return nil
			}

			application, err := app.NewApp(cfg)
			if err != nil {
				logger.Log.Error("Failed to start application", zap.Error(err))
				return err
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs", "配置目录或配置文件路径")
	cmd.Flags().BoolVar(&migrateOnly, "migrate-only", false, "只执行数据库迁移和种子数据，完成后退出")
	cmd.Flags().BoolVar(&resetDemo, "reset-demo", false, "启动前删除并重建所有表（演示环境）")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
