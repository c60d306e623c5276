package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSTT(); err != nil {
		return err
	}
	if err := c.validateFeedback(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateSTT() error {
	if c.STT.BaseURL == "" {
		return errors.New("stt.base_url must be set")
	}
	if c.STT.Model == "" {
		return errors.New("stt.model must be set")
	}
	if c.STT.TimeoutSeconds < 0 {
		return errors.New("stt.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateFeedback() error {
	if c.Feedback.MaxSlideFloor < 1 {
		return errors.New("feedback.max_slide_floor must be at least 1")
	}
	if c.Feedback.SessionMaxAgeHours < 1 {
		return errors.New("feedback.session_max_age_hours must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
