package apiserver

import (
	"errors"
	"flag"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/facebookgo/flagenv"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Config ...
type Config struct {
	BindAddr           string `toml:"bind_addr"`
	LogLevel           string `toml:"log_level"`
	PlivoAuthID        string `toml:"plivo_auth_id"`
	PlivoAuthToken     string `toml:"plivo_auth_token"`
	PlivoPhone         string `toml:"plivo_phone"`
	PlivoAPIURL        string `toml:"plivo_api_url"`
	RecordedMessageURL string `toml:"recorded_message_url"`
	AnswerURL          string `toml:"answer_url"`
	CallbackSecret     string `toml:"callback_secret"`
	CallbackTTL        string `toml:"callback_ttl"`
	ProviderTimeout    string `toml:"provider_timeout"`
}

// Конструктор конфигурации, присвоение дефолтных значений
func NewConfig() *Config {
	return &Config{
		BindAddr:        ":5000",
		LogLevel:        "info",
		PlivoAPIURL:     "https://api.plivo.com/v1",
		CallbackTTL:     "1h",
		ProviderTimeout: "10s",
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BindAddr, validation.Required),
		validation.Field(&c.LogLevel, validation.By(logLevel)),
		validation.Field(&c.PlivoAuthID, validation.Required),
		validation.Field(&c.PlivoAuthToken, validation.Required),
		validation.Field(&c.PlivoPhone, validation.Required),
		validation.Field(&c.PlivoAPIURL, validation.Required, is.RequestURL),
		validation.Field(&c.RecordedMessageURL, validation.Required, is.RequestURL),
		validation.Field(&c.AnswerURL, validation.Required, is.RequestURL),
		validation.Field(&c.CallbackTTL, validation.Required, validation.By(duration)),
		validation.Field(&c.ProviderTimeout, validation.Required, validation.By(duration)),
	)
}

func (c *Config) callbackTTL() time.Duration {
	d, _ := time.ParseDuration(c.CallbackTTL)
	return d
}

func (c *Config) providerTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ProviderTimeout)
	return d
}

func logLevel(value interface{}) error {
	s, _ := value.(string)
	_, err := logrus.ParseLevel(s)
	return err
}

func duration(value interface{}) error {
	s, _ := value.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration like 30s or 1h")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// field binds one config value to a flag and an environment variable of the
// same name in upper case.
type field struct {
	name  string
	usage string
	value *string
}

func (c *Config) fields() []field {
	return []field{
		{"bind_addr", "address to listen on", &c.BindAddr},
		{"log_level", "logrus level", &c.LogLevel},
		{"plivo_auth_id", "Plivo auth id", &c.PlivoAuthID},
		{"plivo_auth_token", "Plivo auth token", &c.PlivoAuthToken},
		{"plivo_phone", "phone number calls are made from", &c.PlivoPhone},
		{"plivo_api_url", "Plivo REST API base URL", &c.PlivoAPIURL},
		{"recorded_message_url", "recording played when the CRM sends no audio_url", &c.RecordedMessageURL},
		{"answer_url", "public URL of the answer callback", &c.AnswerURL},
		{"callback_secret", "key used to sign answer tokens", &c.CallbackSecret},
		{"callback_ttl", "how long an answer token stays valid", &c.CallbackTTL},
		{"provider_timeout", "timeout for Plivo API requests", &c.ProviderTimeout},
	}
}

// LoadConfig builds the config from defaults, an optional TOML file, the
// environment (optionally seeded from a .env file) and command line flags,
// in increasing priority.
func LoadConfig(name string, args []string) (*Config, error) {
	config := NewConfig()

	set := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := set.String("config", "", "path to configs file")
	envFile := set.String("env_file", ".env", "dotenv file loaded into the environment")
	port := set.String("port", "", "port to listen on, overrides bind_addr")

	overrides := make(map[string]*string)
	for _, f := range config.fields() {
		overrides[f.name] = set.String(f.name, "", f.usage)
	}

	if err := set.Parse(args); err != nil {
		return nil, err
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "failed to load %s", *envFile)
		}
	}

	if err := flagenv.ParseSet("", set); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, config); err != nil {
			return nil, eris.Wrapf(err, "failed to decode %s", *configPath)
		}
	}

	for _, f := range config.fields() {
		if v := *overrides[f.name]; v != "" {
			*f.value = v
		}
	}

	if *port != "" {
		config.BindAddr = ":" + *port
	}

	return config, nil
}
