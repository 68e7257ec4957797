package main

import (
	"file-utility-bot/configs"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configDir string
	env       string
	cfg       *configs.Config
}

// ensureConfig loads the config once per process
func (c *commandContext) ensureConfig() *configs.Config {
	if c.cfg == nil {
		configs.InitViper(c.configDir, c.env)
		c.cfg = configs.GetViper()
		c.cfg.ConfigureLogger()
	}
	return c.cfg
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "filebot",
		Short:         "Telegram file utility bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.configDir, "config", "./configs", "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&ctx.env, "env", "", "The environment to use")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newUsersCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
