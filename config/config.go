// Package config loads settings from the environment and builds the logger.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	LogPath        string        `validate:"required"`
	Language       string        `validate:"required"`
	Pacing         time.Duration `validate:"gte=0"`
	KeywordLimit   int           `validate:"min=1"`
	SpeakerMarkers []string      `validate:"min=1,dive,required"`

	ASRBackend     string `validate:"oneof=whisper deepgram"`
	OpenAIAPIKey   string `validate:"required_if=ASRBackend whisper"`
	OpenAIBaseURL  string `validate:"omitempty,url"`
	WhisperModel   string `validate:"required_if=ASRBackend whisper"`
	DeepgramAPIKey string `validate:"required_if=ASRBackend deepgram"`
	DeepgramModel  string `validate:"required_if=ASRBackend deepgram"`

	AudioSource     string        `validate:"oneof=command twilio"`
	AudioCommand    string        `validate:"required_if=AudioSource command"`
	SampleRate      int           `validate:"min=8000"`
	EnergyThreshold float64       `validate:"gt=0"`
	DynamicEnergy   bool
	PauseThreshold  time.Duration `validate:"gt=0"`
	Calibration     time.Duration `validate:"gte=0"`

	HTTPAddr         string `validate:"required_if=AudioSource twilio"`
	TwilioAccountSid string `validate:"required_if=AudioSource twilio"`
	TwilioAuthToken  string `validate:"required_if=AudioSource twilio"`
	TwilioFromNumber string `validate:"required_if=AudioSource twilio,omitempty,e164"`
	BaseURL          string `validate:"required_if=AudioSource twilio,omitempty,url"`
	BaseWSURL        string `validate:"required_if=AudioSource twilio,omitempty,url"`

	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`
}

// Load reads .env when present, then the environment, and validates the
// result.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var err error
	cfg := &Config{
		LogPath:        env("OUTPUT_PATH", "output.txt"),
		Language:       env("LANGUAGE", "en-US"),
		SpeakerMarkers: splitList(env("SPEAKER_MARKERS", "speaker,voice")),

		ASRBackend:     strings.ToLower(env("ASR_BACKEND", "whisper")),
		OpenAIAPIKey:   env("OPEN_AI_API_KEY", ""),
		OpenAIBaseURL:  env("OPEN_AI_BASE_URL", ""),
		WhisperModel:   env("WHISPER_MODEL", "whisper-1"),
		DeepgramAPIKey: env("DEEPGRAM_API_KEY", ""),
		DeepgramModel:  env("DEEPGRAM_MODEL", "nova-2"),

		AudioSource:  strings.ToLower(env("AUDIO_SOURCE", "command")),
		AudioCommand: env("AUDIO_COMMAND", "arecord -q -t raw -f S16_LE -c 1 -r 16000"),

		HTTPAddr:         env("HTTP_ADDR", ""),
		TwilioAccountSid: env("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  env("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: env("TWILIO_FROM_NUMBER", ""),
		BaseURL:          env("BASE_URL", ""),
		BaseWSURL:        env("BASE_WS_URL", ""),

		LogLevel:  strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env("LOG_FORMAT", "text")),
	}

	if cfg.Pacing, err = parseDuration("PACING", env("PACING", "2s")); err != nil {
		return nil, err
	}
	if cfg.PauseThreshold, err = parseDuration("PAUSE_THRESHOLD", env("PAUSE_THRESHOLD", "800ms")); err != nil {
		return nil, err
	}
	if cfg.Calibration, err = parseDuration("CALIBRATION", env("CALIBRATION", "1s")); err != nil {
		return nil, err
	}
	if cfg.KeywordLimit, err = parseInt("KEYWORD_LIMIT", env("KEYWORD_LIMIT", "5")); err != nil {
		return nil, err
	}
	if cfg.SampleRate, err = parseInt("SAMPLE_RATE", env("SAMPLE_RATE", "16000")); err != nil {
		return nil, err
	}
	if cfg.EnergyThreshold, err = strconv.ParseFloat(env("ENERGY_THRESHOLD", "500"), 64); err != nil {
		return nil, errors.Wrap(err, "ENERGY_THRESHOLD")
	}
	if cfg.DynamicEnergy, err = strconv.ParseBool(env("DYNAMIC_ENERGY", "true")); err != nil {
		return nil, errors.Wrap(err, "DYNAMIC_ENERGY")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// parseDuration accepts Go durations and bare numbers of seconds.
func parseDuration(key, raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return d, nil
}

func parseInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
