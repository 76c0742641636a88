package config

import (
	"strconv"
)

// Config represents the persistent prepmate configuration stored as
// config.toml in the .prepmate/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	LLM       LLMConfig       `toml:"llm"`
	Speech    SpeechConfig    `toml:"speech"`
	API       APIConfig       `toml:"api"`
	Client    ClientConfig    `toml:"client"`
	Interview InterviewConfig `toml:"interview"`
}

// LLMConfig holds settings for the chat-completions upstream that plays
// the interviewer.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Upstream string `toml:"upstream,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// SpeechConfig holds settings for the transcription and synthesis upstream.
type SpeechConfig struct {
	Upstream        string `toml:"upstream,omitempty"`
	TranscribeModel string `toml:"transcribe_model,omitempty"`
	SpeechModel     string `toml:"speech_model,omitempty"`
	Voice           string `toml:"voice,omitempty"`
	Language        string `toml:"language,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// prepmate API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// InterviewConfig holds default session settings for new interviews.
// Role and Level are validated at the session boundary, not here.
type InterviewConfig struct {
	Role  string `toml:"role,omitempty"`
	Level string `toml:"level,omitempty"`
	Speak bool   `toml:"speak,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.upstream": {
		get: func(c *Config) string { return c.LLM.Upstream },
		set: func(c *Config, v string) error { c.LLM.Upstream = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"speech.upstream": {
		get: func(c *Config) string { return c.Speech.Upstream },
		set: func(c *Config, v string) error { c.Speech.Upstream = v; return nil },
	},
	"speech.transcribe_model": {
		get: func(c *Config) string { return c.Speech.TranscribeModel },
		set: func(c *Config, v string) error { c.Speech.TranscribeModel = v; return nil },
	},
	"speech.speech_model": {
		get: func(c *Config) string { return c.Speech.SpeechModel },
		set: func(c *Config, v string) error { c.Speech.SpeechModel = v; return nil },
	},
	"speech.voice": {
		get: func(c *Config) string { return c.Speech.Voice },
		set: func(c *Config, v string) error { c.Speech.Voice = v; return nil },
	},
	"speech.language": {
		get: func(c *Config) string { return c.Speech.Language },
		set: func(c *Config, v string) error { c.Speech.Language = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"interview.role": {
		get: func(c *Config) string { return c.Interview.Role },
		set: func(c *Config, v string) error { c.Interview.Role = v; return nil },
	},
	"interview.level": {
		get: func(c *Config) string { return c.Interview.Level },
		set: func(c *Config, v string) error { c.Interview.Level = v; return nil },
	},
	"interview.speak": {
		get: func(c *Config) string { return strconv.FormatBool(c.Interview.Speak) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return invalidValueError("interview.speak", err)
			}
			c.Interview.Speak = b
			return nil
		},
	},
}
