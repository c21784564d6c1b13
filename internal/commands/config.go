package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/mybot/internal/config"
	"github.com/diogo/mybot/internal/render"
)

func newConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change the settings stored in ~/.mybot/config.json.
The MYBOT_BASE_URL environment variable overrides base_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Change one setting. Valid keys:\n  " + strings.Join(config.Keys(), "\n  "),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(deps, args[0], strings.Join(args[1:], " "))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.stdout(), path)
			return nil
		},
	})

	return cmd
}

func runConfigShow(deps *Dependencies) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(deps.stdout(), string(data))
	return nil
}

func runConfigSet(deps *Dependencies, key, value string) error {
	// Environment overrides must not leak into the saved file.
	cfg, err := config.LoadFileConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Set(&cfg, key, value); err != nil {
		return err
	}

	switch key {
	case "tui_theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			fmt.Fprintln(deps.stderr(), warningLine(fmt.Sprintf("Unknown theme %q (available: %s)",
				value, strings.Join(render.TUIThemeNames(), ", "))))
		}
	case "markdown.style":
		if !render.IsBuiltinStyle(value) {
			fmt.Fprintln(deps.stderr(), warningLine(fmt.Sprintf("%q is not a built-in style; it will be loaded as a file", value)))
		}
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintln(deps.stderr(), successLine(fmt.Sprintf("%s updated", key)))
	return nil
}
