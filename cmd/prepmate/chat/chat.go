// Package chatcmder provides the chat command for running an interactive
// mock interview against the prepmate API server.
package chatcmder

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/prepmate/prepmate/api"
	"github.com/prepmate/prepmate/pkg/audio"
	"github.com/prepmate/prepmate/pkg/cliui"
	"github.com/prepmate/prepmate/pkg/config"
	"github.com/prepmate/prepmate/pkg/logger"
	"github.com/prepmate/prepmate/pkg/session"
	"github.com/prepmate/prepmate/pkg/storage"
)

var userPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true).Render("you> ")

type chatCommander struct {
	apiTarget string
	role      string
	level     string
	speak     bool
	debug     bool

	logger *slog.Logger
	client *http.Client
}

const chatLongDesc string = `Start an interactive mock interview in the terminal.

The chat command opens a session on the prepmate API server and runs a
question/answer loop. Answer by typing, or submit a recorded answer
with /audio. When the interviewer offers to wrap up and you agree, the
session ends with a structured evaluation report.

Commands inside the session:
  /audio <file.wav>   Submit a recorded answer (16-bit PCM WAV)
  /role <role>        Switch the interview role for future questions
  /level <level>      Switch the experience level for future questions
  /speak on|off       Toggle spoken replies
  /exit               Leave the interview without an evaluation

Examples:
  prepmate chat
  prepmate chat --role "Software Engineer" --level Senior
  prepmate chat --speak`

const chatShortDesc string = "Interactive mock interview in the terminal"

var chatFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagRole,
	config.FlagLevel,
	config.FlagSpeak,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlagKeys)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.role = v.GetString("interview.role")
			cmder.level = v.GetString("interview.level")
			cmder.speak = v.GetBool("interview.speak")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagRole, &cmder.role)
	config.AddStringFlag(cmd, config.Flags, config.FlagLevel, &cmder.level)
	config.AddBoolFlag(cmd, config.Flags, config.FlagSpeak, &cmder.speak)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	// Validate locally so a typo fails before the session is opened.
	role, err := session.ParseRole(c.role)
	if err != nil {
		return err
	}
	level, err := session.ParseLevel(c.level)
	if err != nil {
		return err
	}

	c.client = &http.Client{
		// A turn can cover transcription, completion, and synthesis.
		Timeout: 5 * time.Minute,
	}

	sess, err := c.createSession(role, level)
	if err != nil {
		return err
	}
	defer c.deleteSession(sess.ID)

	fmt.Println()
	fmt.Printf("  %s Interview session %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(sess.ID),
	)
	fmt.Printf("  %s %s %s\n\n",
		cliui.KeyStyle.Render("Role:"),
		cliui.NameStyle.Render(string(role)),
		cliui.DimStyle.Render("("+string(level)+")"),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Answer and press Enter. /audio <file.wav> to submit a recording, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		req, note, err := buildTurnRequest(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		var turn *api.TurnResponse
		if err := cliui.Step(os.Stdout, "interviewing", func() error {
			turn, err = c.sendTurn(sess.ID, req)
			return err
		}); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		if turn.NoOp {
			if note != "" {
				fmt.Printf("  %s\n", cliui.Notice(note))
			}
			continue
		}

		if turn.TranscriptionError != "" {
			fmt.Printf("  %s\n", cliui.Warn("transcription failed: "+turn.TranscriptionError))
		}
		if req.Audio != nil {
			fmt.Println(cliui.CandidateLine(turn.UserText))
		}

		if turn.WrapUp {
			fmt.Println()
			fmt.Print(cliui.RenderReport(turn.AssistantText))
		} else {
			fmt.Println(cliui.InterviewerLine(turn.AssistantText))
		}

		if turn.Speech != "" {
			path, err := saveSpeech(sess.ID, turn.TranscriptLen, turn.Speech)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			} else {
				fmt.Printf("  %s\n", cliui.Notice("spoken reply saved to "+path))
			}
		}

		fmt.Println()

		if turn.WrapUp {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

func (c *chatCommander) createSession(role session.Role, level session.Level) (*storage.Session, error) {
	body := api.CreateSessionRequest{
		Role:       string(role),
		Level:      string(level),
		VoiceReply: c.speak,
	}

	var sess storage.Session
	if err := c.post("/sessions", body, &sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	c.logger.Debug("session created", "id", sess.ID)
	return &sess, nil
}

func (c *chatCommander) sendTurn(id string, req api.TurnRequest) (*api.TurnResponse, error) {
	var turn api.TurnResponse
	if err := c.post("/sessions/"+id+"/turns", req, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *chatCommander) deleteSession(id string) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete,
		c.apiTarget+"/sessions/"+id, nil)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("deleting session failed", "id", id, "error", err)
		return
	}
	resp.Body.Close()
}

func (c *chatCommander) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		c.apiTarget+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// buildTurnRequest maps one REPL line to a turn request. The note, when
// non-empty, is shown once the server acknowledges a settings-only turn.
func buildTurnRequest(input string) (api.TurnRequest, string, error) {
	var req api.TurnRequest

	if path, ok := strings.CutPrefix(input, "/audio "); ok {
		payload, err := loadAudioPayload(strings.TrimSpace(path))
		if err != nil {
			return req, "", err
		}
		req.Audio = payload
		return req, "", nil
	}

	if arg, ok := strings.CutPrefix(input, "/role "); ok {
		role, err := session.ParseRole(strings.TrimSpace(arg))
		if err != nil {
			return req, "", err
		}
		req.Role = string(role)
		return req, "role switched to " + string(role), nil
	}

	if arg, ok := strings.CutPrefix(input, "/level "); ok {
		level, err := session.ParseLevel(strings.TrimSpace(arg))
		if err != nil {
			return req, "", err
		}
		req.Level = string(level)
		return req, "level switched to " + string(level), nil
	}

	if arg, ok := strings.CutPrefix(input, "/speak "); ok {
		var on bool
		switch strings.TrimSpace(arg) {
		case "on":
			on = true
		case "off":
		default:
			return req, "", fmt.Errorf("usage: /speak on|off")
		}
		req.VoiceReply = &on
		return req, "spoken replies turned " + strings.TrimSpace(arg), nil
	}

	req.Text = input
	return req, "", nil
}

// loadAudioPayload reads a PCM WAV file and converts it to the wire
// form the turns endpoint expects.
func loadAudioPayload(path string) (*api.AudioPayload, error) {
	if path == "" {
		return nil, fmt.Errorf("usage: /audio <file.wav>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}

	clip, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	buf := make([]byte, 4*len(clip.Samples))
	for i, v := range clip.Samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}

	return &api.AudioPayload{
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		Data:       base64.StdEncoding.EncodeToString(buf),
	}, nil
}

// saveSpeech writes the base64 mp3 reply next to the working directory.
func saveSpeech(sessionID string, seq int, encoded string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding speech payload: %w", err)
	}

	path := fmt.Sprintf("prepmate-%s-%d.mp3", sessionID[:8], seq)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("writing speech file: %w", err)
	}
	return path, nil
}
