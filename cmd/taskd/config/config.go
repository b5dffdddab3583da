package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	persistence "github.com/goliatone/go-persistence-bun"
)

// BaseConfig is the root configuration for the task service. Values
// load from app.json with environment overrides; the signing key has
// no default and must be provided.
type BaseConfig struct {
	App         App         `json:"app" koanf:"app"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

func (a *BaseConfig) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Auth),
		validation.Field(&a.Persistence),
	)
}

func (a *BaseConfig) GetApp() *App {
	return &a.App
}

func (a *BaseConfig) GetAuth() *Auth {
	return &a.Auth
}

func (a *BaseConfig) GetPersistence() *Persistence {
	return &a.Persistence
}

type App struct {
	Name string `json:"name" koanf:"name"`
	Host string `json:"host" koanf:"host"`
	Port int    `json:"port" koanf:"port"`
}

func (a App) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Auth carries the token issuer/validator options. It satisfies the
// auth package's Config interface.
type Auth struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.SigningKey, validation.Required, validation.Length(32, 0)),
	)
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

func (a Auth) GetTokenExpiration() int {
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

type Persistence struct {
	Debug                 bool   `json:"debug" koanf:"debug"`
	Driver                string `json:"driver" koanf:"driver"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	OtelIdentifier        string `json:"otel_identifier" koanf:"otel_identifier"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

var _ persistence.Config = Persistence{}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DSN, validation.Required),
	)
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

// GetServer satisfies the persistence client config; the DSN carries
// the full connection string.
func (p Persistence) GetServer() string {
	return p.DSN
}

func (p Persistence) GetOtelIdentifier() string {
	return p.OtelIdentifier
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return time.Second * 5
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}
