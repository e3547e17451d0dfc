package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tributa/internal/money"
	"tributa/internal/tax"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	CORS   CORSConfig
	Sped   SpedConfig
	Reform ReformConfig
	Tax    TaxConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	// Migrations is the golang-migrate source URL for the schema.
	Migrations string `mapstructure:"migrations"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SpedConfig pins layout versions per bookkeeping variant. Empty values use the
// year-based default.
type SpedConfig struct {
	ICMSIPIVersion       string        `mapstructure:"icms_ipi_version"`
	ContributionsVersion string        `mapstructure:"contributions_version"`
	CorporateVersion     string        `mapstructure:"corporate_version"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

// ReformConfig selects where transition rates come from: "table" is the built-in
// schedule, "database" reads the reform_phases and classification_reductions tables.
type ReformConfig struct {
	RateSource string `mapstructure:"rate_source"`
}

// TaxConfig holds the PIS/COFINS rate sets in percent.
type TaxConfig struct {
	CumulativePIS       string `mapstructure:"cumulative_pis"`
	CumulativeCOFINS    string `mapstructure:"cumulative_cofins"`
	NonCumulativePIS    string `mapstructure:"non_cumulative_pis"`
	NonCumulativeCOFINS string `mapstructure:"non_cumulative_cofins"`
}

// ContributionRates parses the configured rates.
func (t TaxConfig) ContributionRates() (tax.ContributionRates, error) {
	parse := func(key, s string) (money.Percentage, error) {
		p, err := money.ParsePercentage(s)
		if err != nil {
			return money.Percentage{}, fmt.Errorf("tax.%s: %w", key, err)
		}
		return p, nil
	}
	var (
		r   tax.ContributionRates
		err error
	)
	if r.Cumulative.PIS, err = parse("cumulative_pis", t.CumulativePIS); err != nil {
		return r, err
	}
	if r.Cumulative.COFINS, err = parse("cumulative_cofins", t.CumulativeCOFINS); err != nil {
		return r, err
	}
	if r.NonCumulative.PIS, err = parse("non_cumulative_pis", t.NonCumulativePIS); err != nil {
		return r, err
	}
	if r.NonCumulative.COFINS, err = parse("non_cumulative_cofins", t.NonCumulativeCOFINS); err != nil {
		return r, err
	}
	return r, r.Validate()
}

// Load reads configuration from environment variables with the TRIBUTA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRIBUTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "tributa")
	v.SetDefault("db.password", "tributa_secret")
	v.SetDefault("db.name", "tributa_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.migrations", "file://db/migrations")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("sped.icms_ipi_version", "")
	v.SetDefault("sped.contributions_version", "")
	v.SetDefault("sped.corporate_version", "")
	v.SetDefault("sped.timeout", "2m")

	v.SetDefault("reform.rate_source", "table")

	v.SetDefault("tax.cumulative_pis", "0.65")
	v.SetDefault("tax.cumulative_cofins", "3")
	v.SetDefault("tax.non_cumulative_pis", "1.65")
	v.SetDefault("tax.non_cumulative_cofins", "7.6")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "TRIBUTA_SERVER_PORT",
		"server.read_timeout":        "TRIBUTA_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "TRIBUTA_SERVER_WRITE_TIMEOUT",
		"server.environment":         "TRIBUTA_SERVER_ENVIRONMENT",
		"db.host":                    "TRIBUTA_DB_HOST",
		"db.port":                    "TRIBUTA_DB_PORT",
		"db.user":                    "TRIBUTA_DB_USER",
		"db.password":                "TRIBUTA_DB_PASSWORD",
		"db.name":                    "TRIBUTA_DB_NAME",
		"db.sslmode":                 "TRIBUTA_DB_SSLMODE",
		"db.max_open":                "TRIBUTA_DB_MAX_OPEN",
		"db.max_idle":                "TRIBUTA_DB_MAX_IDLE",
		"db.migrations":              "TRIBUTA_DB_MIGRATIONS",
		"log.level":                  "TRIBUTA_LOG_LEVEL",
		"log.format":                 "TRIBUTA_LOG_FORMAT",
		"cors.allowed_origins":       "TRIBUTA_CORS_ALLOWED_ORIGINS",
		"sped.icms_ipi_version":      "TRIBUTA_SPED_ICMS_IPI_VERSION",
		"sped.contributions_version": "TRIBUTA_SPED_CONTRIBUTIONS_VERSION",
		"sped.corporate_version":     "TRIBUTA_SPED_CORPORATE_VERSION",
		"sped.timeout":               "TRIBUTA_SPED_TIMEOUT",
		"reform.rate_source":         "TRIBUTA_REFORM_RATE_SOURCE",
		"tax.cumulative_pis":         "TRIBUTA_TAX_CUMULATIVE_PIS",
		"tax.cumulative_cofins":      "TRIBUTA_TAX_CUMULATIVE_COFINS",
		"tax.non_cumulative_pis":     "TRIBUTA_TAX_NON_CUMULATIVE_PIS",
		"tax.non_cumulative_cofins":  "TRIBUTA_TAX_NON_CUMULATIVE_COFINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Platforms like Railway/Render set PORT. Use it if TRIBUTA_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TRIBUTA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:       v.GetString("db.host"),
		Port:       v.GetInt("db.port"),
		User:       v.GetString("db.user"),
		Password:   v.GetString("db.password"),
		Name:       v.GetString("db.name"),
		SSLMode:    v.GetString("db.sslmode"),
		MaxOpen:    v.GetInt("db.max_open"),
		MaxIdle:    v.GetInt("db.max_idle"),
		Migrations: v.GetString("db.migrations"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Sped = SpedConfig{
		ICMSIPIVersion:       v.GetString("sped.icms_ipi_version"),
		ContributionsVersion: v.GetString("sped.contributions_version"),
		CorporateVersion:     v.GetString("sped.corporate_version"),
		Timeout:              v.GetDuration("sped.timeout"),
	}

	source := strings.ToLower(strings.TrimSpace(v.GetString("reform.rate_source")))
	if source != "table" && source != "database" {
		return nil, fmt.Errorf("reform.rate_source must be table or database, got %q", source)
	}
	cfg.Reform = ReformConfig{RateSource: source}

	cfg.Tax = TaxConfig{
		CumulativePIS:       v.GetString("tax.cumulative_pis"),
		CumulativeCOFINS:    v.GetString("tax.cumulative_cofins"),
		NonCumulativePIS:    v.GetString("tax.non_cumulative_pis"),
		NonCumulativeCOFINS: v.GetString("tax.non_cumulative_cofins"),
	}
	if _, err := cfg.Tax.ContributionRates(); err != nil {
		return nil, err
	}

	return cfg, nil
}
