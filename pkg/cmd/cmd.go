// Package cmd 回收站清理服务的命令行入口.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/trashbin/pkg/app"
	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "trashbin",
		Short:         "Per-user trash expiry service",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			cfg := configs.GetConfig()
			log.Init(cfg.Log, debug || cfg.Server.Debug)

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	registerServeCommands()
	registerExpireCommands()
	registerConfigsCommands()
	registerBackendCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// withApp 初始化应用后执行 fn，结束时释放资源.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(ctx, configs.GetConfig())
	if err != nil {
		return err
	}

	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Logger().Error().Err(err).Msg("close app")
		}
	}()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}
