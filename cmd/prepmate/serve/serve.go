// Package servecmder provides the serve command for running the prepmate
// API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prepmate/prepmate/api"
	"github.com/prepmate/prepmate/pkg/config"
	"github.com/prepmate/prepmate/pkg/credentials"
	llmopenai "github.com/prepmate/prepmate/pkg/llm/openai"
	"github.com/prepmate/prepmate/pkg/logger"
	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/speech"
	speechopenai "github.com/prepmate/prepmate/pkg/speech/openai"
	"github.com/prepmate/prepmate/pkg/storage/inmemory"
)

type ServeCommander struct {
	listen         string
	upstream       string
	model          string
	speechUpstream string
	voice          string
	logFile        string
	debug          bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the prepmate API server.

The server keeps interview sessions in memory and talks to an
OpenAI-compatible upstream for completions, transcription, and speech
synthesis. Sessions are discarded when the server exits.

The API key is resolved at startup from the provider's environment
variable or from stored credentials (see 'prepmate auth'); a missing
key fails immediately rather than on the first interview turn.

Examples:
  prepmate serve
  prepmate serve --listen :9090
  prepmate serve --model llama-3.1-70b-versatile --debug`

const serveShortDesc string = "Run the prepmate API server"

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagUpstream,
	config.FlagModel,
	config.FlagSpeechUpstream,
	config.FlagVoice,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)

			cmder.listen = v.GetString("api.listen")
			cmder.upstream = v.GetString("llm.upstream")
			cmder.model = v.GetString("llm.model")
			cmder.speechUpstream = v.GetString("speech.upstream")
			cmder.voice = v.GetString("speech.voice")

			return cmder.run(v, configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagSpeechUpstream, &cmder.speechUpstream)
	config.AddStringFlag(cmd, config.Flags, config.FlagVoice, &cmder.voice)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write logs to this file")

	return cmd
}

func (c *ServeCommander) run(v configValues, configDir string) error {
	if err := c.setupLogger(); err != nil {
		return err
	}
	defer c.logger.Sync()

	provider := v.GetString("llm.provider")

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	apiKey, err := creds.Resolve(provider)
	if err != nil {
		return err
	}

	llmClient, err := llmopenai.New(c.upstream, apiKey, c.logger)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	transcriber, synthesizer, err := c.speechClients(v, apiKey)
	if err != nil {
		return err
	}

	controller, err := session.NewController(llmClient, c.model, transcriber, synthesizer, c.logger)
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	store := inmemory.New()

	server, err := api.NewServer(api.Config{ListenAddr: c.listen}, store, controller, c.logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	c.logger.Info("starting prepmate server",
		zap.String("listen", c.listen),
		zap.String("provider", provider),
		zap.String("upstream", c.upstream),
		zap.String("model", c.model),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("api server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *ServeCommander) setupLogger() error {
	if c.logFile == "" {
		c.logger = logger.NewLogger(c.debug)
		return nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	c.logger = logger.NewLoggerWithWriters(c.debug, os.Stderr, f)
	return nil
}

func (c *ServeCommander) speechClients(v configValues, apiKey string) (speech.Transcriber, speech.Synthesizer, error) {
	client, err := speechopenai.New(c.speechUpstream, apiKey, speechopenai.Options{
		TranscribeModel: v.GetString("speech.transcribe_model"),
		SpeechModel:     v.GetString("speech.speech_model"),
		Voice:           c.voice,
		Language:        v.GetString("speech.language"),
	}, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating speech client: %w", err)
	}
	return client, client, nil
}

// configValues is the slice of the viper API the serve command reads.
type configValues interface {
	GetString(key string) string
}
