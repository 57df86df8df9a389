package session

import (
	"errors"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
)

// PlaceholderProjectID is the project id shipped in config templates. Configs
// still carrying it were copied without being filled in.
const PlaceholderProjectID = "your-project-id"

// Config holds the static connection record for a backend project. Everything
// besides ProjectID is opaque pass-through for the Backend implementation.
type Config struct {
	ProjectID  string `env:"SESSION_PROJECT_ID" json:"project_id"`
	APIKey     string `env:"SESSION_API_KEY" json:"api_key"`
	Endpoint   string `env:"SESSION_ENDPOINT" json:"endpoint"`
	SigningKey string `env:"SESSION_SIGNING_KEY" json:"signing_key"`
	DSN        string `env:"SESSION_DSN" envDefault:"file::memory:?cache=shared" json:"dsn"`
}

// Validate reports whether the config identifies a real project
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.ProjectID,
			validation.Required,
			validation.By(notPlaceholder),
		),
	)
}

func notPlaceholder(value any) error {
	if raw, _ := value.(string); raw == PlaceholderProjectID {
		return errors.New("is the template placeholder, set a real project id")
	}
	return nil
}

// ConfigFromEnv loads a Config from SESSION_* environment variables
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
