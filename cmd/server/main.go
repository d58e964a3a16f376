package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"guess-who-arena/internal/bootstrap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "guess-who-arena",
		Short:         "Real-time session server for the two-player guessing game",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// serve 启动 HTTP/WebSocket 服务、Hub 和后台 Worker，直到收到退出信号
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket server and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			log := bootstrap.NewLogger(cfg)

			app, err := bootstrap.NewApp(cfg, log)
			if err != nil {
				log.WithError(err).Error("Failed to initialize application")
				return err
			}
			app.Start()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			logrus.Info("Shutdown signal received...")

			app.Shutdown()
			return nil
		},
	}
}

// migrate 只执行表结构迁移和称号等级的初始化
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			log := bootstrap.NewLogger(cfg)

			db, err := bootstrap.OpenDatabase(cfg, log)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
