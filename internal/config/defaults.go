package config

const (
	defaultDataDir            = "~/.local/share/tutord"
	defaultLogDir             = "~/.local/share/tutord/logs"
	defaultAssignmentsDir     = "~/.local/share/tutord/assignments"
	defaultAPIBind            = "127.0.0.1:5001"
	defaultLLMBaseURL         = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel           = "gpt-4o"
	defaultLLMTimeoutSeconds  = 60
	defaultSTTBaseURL         = "https://api.openai.com/v1/audio/transcriptions"
	defaultSTTModel           = "whisper-1"
	defaultSTTTimeoutSeconds  = 120
	defaultMaxSlideFloor      = 4
	defaultSessionMaxAgeHours = 24
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			LogDir:         defaultLogDir,
			AssignmentsDir: defaultAssignmentsDir,
			APIBind:        defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		STT: STT{
			BaseURL:        defaultSTTBaseURL,
			Model:          defaultSTTModel,
			TimeoutSeconds: defaultSTTTimeoutSeconds,
		},
		Feedback: Feedback{
			MaxSlideFloor:      defaultMaxSlideFloor,
			SessionMaxAgeHours: defaultSessionMaxAgeHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
