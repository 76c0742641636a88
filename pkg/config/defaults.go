package config

const (
	defaultLLMProvider = "groq"
	defaultLLMUpstream = "https://api.groq.com/openai/v1"
	defaultLLMModel    = "llama-3.1-8b-instant"

	defaultSpeechUpstream   = "https://api.groq.com/openai/v1"
	defaultTranscribeModel  = "whisper-large-v3"
	defaultSpeechModel      = "playai-tts"
	defaultVoice            = "Fritz-PlayAI"
	defaultSpeechLanguage   = "en"
	defaultAPIListen        = ":8081"
	defaultClientAPITarget  = "http://localhost:8081"
	defaultInterviewRole    = "Data Analyst"
	defaultInterviewLevel   = "Junior"
	defaultInterviewSpeak   = false
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Upstream: defaultLLMUpstream,
			Model:    defaultLLMModel,
		},
		Speech: SpeechConfig{
			Upstream:        defaultSpeechUpstream,
			TranscribeModel: defaultTranscribeModel,
			SpeechModel:     defaultSpeechModel,
			Voice:           defaultVoice,
			Language:        defaultSpeechLanguage,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Interview: InterviewConfig{
			Role:  defaultInterviewRole,
			Level: defaultInterviewLevel,
			Speak: defaultInterviewSpeak,
		},
	}
}
