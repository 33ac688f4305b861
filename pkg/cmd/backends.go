package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/trashbin/pkg/internal/storage/db"
	"github.com/yeisme/trashbin/pkg/internal/storage/kv"
	"github.com/yeisme/trashbin/pkg/internal/storage/mq"
)

// typeNames 把注册表中的类型转成排序后的字符串.
func typeNames[T ~string](types []T) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	slices.Sort(names)

	return names
}

// newBackendCommand 创建 `<kind> list` 命令组，列出编译进二进制的后端实现.
func newBackendCommand(kind, short string, aliases []string, registered func() []string) *cobra.Command {
	group := &cobra.Command{
		Use:     kind,
		Short:   short,
		Aliases: aliases,
	}

	group.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "list all registered " + kind + " types",
		Aliases: []string{"ls", "l"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := registered()

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), names)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s types:\n", kind)

			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+n)
			}

			return nil
		},
	})

	group.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print as JSON")

	return group
}

// registerBackendCommands 注册 db / kv / mq 命令.
func registerBackendCommands() {
	rootCmd.AddCommand(
		newBackendCommand("db", "Database related commands", nil, func() []string {
			return typeNames(db.GetRegisteredDBTypes())
		}),
		newBackendCommand("kv", "Key-Value store related commands", []string{"keyvalue"}, func() []string {
			return typeNames(kv.GetRegisteredKVTypes())
		}),
		newBackendCommand("mq", "Message queue related commands", []string{"messagequeue"}, func() []string {
			return typeNames(mq.GetRegisteredMQTypes())
		}),
	)
}
