package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	// MaintenanceConfig drives the maintenance-window checker and the
	// exemption rules applied by the request gate.
	MaintenanceConfig struct {
		CheckInterval       time.Duration
		DefaultWindowLength time.Duration // fallback length when end <= start
		ExemptIDSuffix      string
		ExemptIDs           []string
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string

		AppName   string
		SecretKey string
		// TimeZone is the single reference timezone all maintenance-window
		// instants are compared in. Never the host's local zone.
		TimeZone string

		FrontendBaseURL           string
		DefaultFromEmail          string
		PasswordResetTimeoutDelta time.Duration
		SendgridApiKey            string
		RollbarToken              string

		Server      ServerConfig
		Database    DatabaseConfig
		Maintenance MaintenanceConfig

		loc *time.Location
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) FromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// Location returns the reference timezone resolved from Config.TimeZone.
func (c *Config) Location() *time.Location {
	return c.loc
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("secretKey", "w3=hx#s2m&d$-zq8y(k4j!vc^59p+u7t)fn0b*ge1lr6a%oi)d")
	v.SetDefault("timeZone", "Africa/Lubumbashi")
	v.SetDefault("frontendBaseURL", "http://localhost:8080")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "mahudhurio")
	v.SetDefault("databaseUser", "mahudhurio")
	v.SetDefault("databasePassword", "mahudhurio")
	v.SetDefault("databaseAdminUser", "")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("maintenanceCheckInterval", 5*time.Second)
	v.SetDefault("maintenanceDefaultWindowLength", time.Hour)
	v.SetDefault("maintenanceExemptIDSuffix", "7")
	v.SetDefault("maintenanceExemptIDs", []string{})

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:    v.GetBool("debug"),
		TestMode: env == "TEST",
		Env:      env,
		Build:    v.GetString("build"),

		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		TimeZone:  v.GetString("timeZone"),

		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromEmail:          v.GetString("defaultFromEmail"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetInt("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Maintenance: MaintenanceConfig{
			CheckInterval:       v.GetDuration("maintenanceCheckInterval"),
			DefaultWindowLength: v.GetDuration("maintenanceDefaultWindowLength"),
			ExemptIDSuffix:      v.GetString("maintenanceExemptIDSuffix"),
			ExemptIDs:           v.GetStringSlice("maintenanceExemptIDs"),
		},
	}

	loc, err := time.LoadLocation(conf.TimeZone)
	if err != nil {
		log.Fatalf("config.time.LoadLocation(%s): %v", conf.TimeZone, err)
	}
	conf.loc = loc

	return conf
}
