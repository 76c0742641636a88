// Package initcmder provides the init command for initializing a local
// .prepmate directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prepmate/prepmate/pkg/config"
)

const (
	dirName = ".prepmate"
)

const initLongDesc string = `Initialize a new .prepmate/ directory in the current working directory.

Creates a local .prepmate/ directory that takes precedence over the
default ~/.prepmate/ directory for configuration and credentials, and
writes a config.toml from the chosen provider preset.

This is useful for keeping separate interview settings per project or
directory.

Examples:
  prepmate init                  Initialize with the groq preset
  prepmate init --preset openai  Initialize with OpenAI endpoints
  prepmate init --preset local   Point at a local OpenAI-compatible stack`

const initShortDesc string = "Initialize a local .prepmate/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "groq",
		"Provider preset to seed config.toml with (groq, openai, local)")

	return cmd
}

func runInit(preset string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .prepmate directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("preparing config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config.toml: %w", err)
	}

	fmt.Printf("Initialized .prepmate directory: %s\n", dir)
	fmt.Printf("Wrote config.toml with the %q preset.\n", preset)
	return nil
}
