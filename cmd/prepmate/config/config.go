// Package configcmder provides the config command for managing persistent
// prepmate configuration stored in the .prepmate/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent prepmate configuration.

Configuration is stored as config.toml in the .prepmate/ directory and
provides default values for command flags. CLI flags always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  llm.provider, llm.upstream, llm.model,
  speech.upstream, speech.transcribe_model, speech.speech_model,
  speech.voice, speech.language,
  api.listen, client.api_target,
  interview.role, interview.level, interview.speak

Use subcommands to get, set, or list configuration values:
  prepmate config set <key> <value>    Set a configuration value
  prepmate config get <key>            Get a configuration value
  prepmate config list                 List all configuration values

Examples:
  prepmate config set interview.role "Software Engineer"
  prepmate config set llm.model llama-3.1-8b-instant
  prepmate config get speech.voice
  prepmate config list`

const configShortDesc string = "Manage persistent prepmate configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
