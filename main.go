// @title Matrix Exam 后端 API
// @version 1.0
// @description 组卷、在线考试与自动评分服务。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"matrix_exam_backend/internal/app"
	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "matrix-exam",
		Short:        "Matrix exam backend: question matrices, timed exam sessions and scoring",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "configs", "配置文件目录（包含 config.yaml）")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), sweepCmd(), importCmd())

	// 不带子命令时默认启动服务
	root.RunE = serve.RunE

	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, dir, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			application, err := app.NewApp(cfg, dir)
			if err != nil {
				return err
			}
			defer logger.Log.Sync()
			return application.Run()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移和基础数据初始化",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, rdb, err := app.Connect(cfg)
			if err != nil {
				return err
			}
			defer logger.Log.Sync()
			if rdb != nil {
				defer rdb.Close()
			}

			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")
			if email == "" {
				email = os.Getenv("MATRIX_EXAM_ADMIN_EMAIL")
			}
			if password == "" {
				password = os.Getenv("MATRIX_EXAM_ADMIN_PASSWORD")
			}
			if email != "" {
				auth := service.NewAuthService(db, repository.NewUserRepository(db), cfg)
				admin, err := auth.EnsureAdmin(email, password)
				if err != nil {
					return fmt.Errorf("ensure admin: %w", err)
				}
				logger.Log.Info("admin account ready", zap.String("email", admin.Email))
			}

			logger.Log.Info("数据库迁移完成")
			return nil
		},
	}
	f := cmd.Flags()
	f.String("admin-email", "", "初始化管理员邮箱（或设置 MATRIX_EXAM_ADMIN_EMAIL）")
	f.String("admin-password", "", "初始化管理员密码（或设置 MATRIX_EXAM_ADMIN_PASSWORD）")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "自动提交所有已超时的考试会话后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, rdb, err := app.Connect(cfg)
			if err != nil {
				return err
			}
			defer logger.Log.Sync()

			application := app.New(cfg, db, rdb)
			defer application.Close()

			n, err := application.SweepOnce(context.Background())
			if err != nil {
				return err
			}
			logger.Log.Info("overdue sessions auto-submitted", zap.Int("count", n))
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <question-bank.yaml>",
		Short: "从 YAML 文件导入题库",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			bank, err := service.ParseQuestionBank(f)
			if err != nil {
				return err
			}
			db, rdb, err := app.Connect(cfg)
			if err != nil {
				return err
			}
			defer logger.Log.Sync()
			if rdb != nil {
				defer rdb.Close()
			}

			summary, err := service.NewBankImporter(db).Import(context.Background(), bank)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
