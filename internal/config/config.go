package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration required by the API process.
// All values come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Vapi   VapiConfig
	PBX    PBXConfig
	Sheets SheetsConfig
	Redis  RedisConfig
	DB     DBConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// VapiConfig carries the voice-provider credentials.
// PublicKey/AssistantID/PhoneNumberID are handed to the browser SDK via
// GET /api/config; PrivateKey is server-only and never leaves the process.
type VapiConfig struct {
	APIURL        string
	PublicKey     string
	PrivateKey    string
	AssistantID   string
	PhoneNumberID string
}

// PBXConfig carries the 3CX call-control credentials used to force-disconnect
// active phone calls.
type PBXConfig struct {
	APIURL   string
	Username string
	Password string
}

// SheetsConfig carries the spreadsheet sink target and the service-account
// credentials JSON used to mint access tokens.
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsJSON string
}

// RedisConfig is optional: when Host is empty the active-call registry
// falls back to the in-memory store.
type RedisConfig struct {
	Host string
	Port int
}

// DBConfig is optional: when Host is empty call history is kept in memory only.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Vapi.APIURL = strings.TrimSpace(os.Getenv("VAPI_API_URL"))
	c.Vapi.PublicKey = strings.TrimSpace(os.Getenv("VAPI_PUBLIC_KEY"))
	c.Vapi.PrivateKey = os.Getenv("VAPI_PRIVATE_KEY")
	c.Vapi.AssistantID = strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID"))
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID"))

	c.PBX.APIURL = strings.TrimSpace(os.Getenv("CX_API_URL"))
	c.PBX.Username = strings.TrimSpace(os.Getenv("CX_USERNAME"))
	c.PBX.Password = os.Getenv("CX_PASSWORD")

	c.Sheets.SpreadsheetID = strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	c.Sheets.Range = strings.TrimSpace(os.Getenv("SHEETS_RANGE"))
	c.Sheets.CredentialsJSON = os.Getenv("GOOGLE_CREDENTIALS")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks what the process cannot run without. Vendor credentials
// (Vapi private key, PBX login, Sheets credentials) are deliberately not
// required at boot: the webhook path works without them, and the endpoints
// that need them report a configuration error at call time.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Vapi.APIURL == "" {
		c.Vapi.APIURL = "https://api.vapi.ai"
	}
	if c.Sheets.Range == "" {
		c.Sheets.Range = "Sheet1!A1:M"
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.DB.Host != "" {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
