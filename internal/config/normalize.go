package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.LogDir,
		&c.Paths.AssignmentsDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.STT.APIKey = strings.TrimSpace(c.STT.APIKey)
	c.STT.BaseURL = strings.TrimSpace(c.STT.BaseURL)
	c.STT.Model = strings.TrimSpace(c.STT.Model)

	// Both clients commonly share one OpenAI key; honour the conventional
	// environment variable when the file leaves either blank.
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.STT.APIKey == "" {
			c.STT.APIKey = key
		}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
