package main

import (
	"fmt"
	"strconv"

	"file-utility-bot/internal/adapters/output/transform/media"
	protocol "file-utility-bot/protocal"

	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, ctx *commandContext) error {
	cfg := ctx.ensureConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return protocol.ServeBot(cmd.Context(), cfg)
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			registry, closeRegistry, err := protocol.OpenRegistry(cfg)
			if err != nil {
				return err
			}
			defer closeRegistry()

			ids, err := registry.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(ids))
			for i, id := range ids {
				rows = append(rows, []string{strconv.Itoa(i + 1), strconv.FormatInt(id, 10)})
			}
			out := cmd.OutOrStdout()
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"#", "User ID"}, rows, []columnAlignment{alignRight, alignRight}))
			}
			fmt.Fprintf(out, "%d registered users\n", len(ids))
			return nil
		},
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools the bot depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			statuses := media.CheckTools(cfg.Media.FFmpeg)

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				detail := status.Path
				if !status.Available {
					state = "missing"
					detail = fmt.Sprintf("binary %q not found", status.Command)
					missing++
				}
				rows = append(rows, []string{status.Name, state, detail, status.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Status", "Detail", "Used for"}, rows, nil))
			if missing > 0 {
				return fmt.Errorf("%d required tool(s) missing", missing)
			}
			return nil
		},
	}
}
