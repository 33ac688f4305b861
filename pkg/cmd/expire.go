package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yeisme/trashbin/pkg/app"
	"github.com/yeisme/trashbin/pkg/configs"
)

var (
	retentionOnly bool
	jsonOutput    bool

	expireCmd = &cobra.Command{
		Use:   "expire",
		Short: "trash expiry commands",
	}

	// 对单个用户执行一次清理.
	expireUserCmd = &cobra.Command{
		Use:   "user <uid>",
		Short: "expire one user's trash now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := configs.ExpiryModeFull
			if retentionOnly {
				mode = configs.ExpiryModeRetention
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Job.ExpireUser(ctx, args[0], mode)
				if err != nil {
					return err
				}

				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), res)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d items, freed %s (retention %d, quota %d, failed %d)\n",
					args[0], res.ItemsRemoved, humanize.IBytes(uint64(res.BytesFreed)),
					res.Retention.ItemsRemoved, res.Quota.ItemsRemoved, res.Failed)

				return nil
			})
		},
	}

	// 执行一次批处理会话.
	expireBatchCmd = &cobra.Command{
		Use:   "batch",
		Short: "run one batch session of the scheduled expiry job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Job.Run(ctx)
				if err != nil {
					return err
				}

				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), res)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d users from offset %d (swept %d, skipped %d, failed %d), removed %d items, freed %s, next offset %d\n",
					res.RunID, res.Users, res.Offset, res.Swept, res.Skipped, res.Failed,
					res.ItemsRemoved, humanize.IBytes(uint64(res.BytesFreed)), res.NextOffset)

				return nil
			})
		},
	}

	// 通过消息队列请求清理.
	expireScheduleCmd = &cobra.Command{
		Use:   "schedule <uid>",
		Short: "publish an expiry request for one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				ok, err := a.Queue.ScheduleExpiry(ctx, args[0])
				if err != nil {
					return err
				}

				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "trash expiry is disabled, nothing scheduled")
					return nil
				}

				fmt.Fprintf(cmd.OutOrStdout(), "expiry scheduled for %s\n", args[0])

				return nil
			})
		},
	}

	expireResetCmd = &cobra.Command{
		Use:   "reset-offset",
		Short: "restart the batch job from the first user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Job.ResetOffset(ctx)
			})
		},
	}
)

func registerExpireCommands() {
	expireUserCmd.Flags().BoolVar(&retentionOnly, "retention-only", false, "skip the quota phase")
	expireCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	expireCmd.AddCommand(expireUserCmd, expireBatchCmd, expireScheduleCmd, expireResetCmd)
	rootCmd.AddCommand(expireCmd)
}
