// Package prepmatecmder
package prepmatecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/prepmate/prepmate/cmd/prepmate/auth"
	chatcmder "github.com/prepmate/prepmate/cmd/prepmate/chat"
	configcmder "github.com/prepmate/prepmate/cmd/prepmate/config"
	initcmder "github.com/prepmate/prepmate/cmd/prepmate/init"
	logscmder "github.com/prepmate/prepmate/cmd/prepmate/logs"
	servecmder "github.com/prepmate/prepmate/cmd/prepmate/serve"
	versioncmder "github.com/prepmate/prepmate/cmd/prepmate/version"
)

const prepmateLongDesc string = `Prepmate is a mock interview practice partner.

Pick a role and an experience level, answer questions by typing or by
submitting a recorded answer, and receive a structured evaluation when
you and the interviewer agree to wrap up.

Common commands:
  prepmate chat        Start an interactive interview in the terminal
  prepmate serve       Run the interview API server
  prepmate auth groq   Store the Groq API key`

const prepmateShortDesc string = "Prepmate - Interview Practice Partner"

func NewPrepmateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepmate",
		Short: prepmateShortDesc,
		Long:  prepmateLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .prepmate/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(logscmder.NewLogsCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
