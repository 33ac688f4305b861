package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/trashbin/pkg/configs"
)

const redacted = "******"

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	// 打印当前使用的配置文件路径.
	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(cmd.OutOrStdout(), used)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and "+configs.EnvPrefix+"_* env only)")

			return nil
		},
	}

	// 以 JSON 打印生效的配置，密钥被遮盖.
	configDebugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if debug {
				v.Debug()
			}

			return printJSON(cmd.OutOrStdout(), maskSecrets(*configs.GetConfig()))
		},
	}
)

// maskSecrets 返回遮盖了密码与密钥的配置副本.
func maskSecrets(cfg configs.AppConfig) configs.AppConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}

	mask(&cfg.DB.Password)
	mask(&cfg.S3.SecretAccessKey)
	mask(&cfg.KV.Redis.Password)
	mask(&cfg.KV.NATS.Password)
	mask(&cfg.MQ.Common.Password)
	mask(&cfg.MQ.Redis.Password)

	return cfg
}

// registerConfigsCommands 注册 config 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configDebugCmd)
	rootCmd.AddCommand(configCmd)
}
