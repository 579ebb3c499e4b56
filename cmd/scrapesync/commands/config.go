package commands

import (
	"scrapesync-backend/internal/fetcher"
	"scrapesync-backend/internal/reconcile"
	"scrapesync-backend/lib/configutil"
	"scrapesync-backend/lib/telemetry"
	"time"
)

const ENV_PREFIX = "SCRAPESYNC_"

type DatabaseConfig struct {
	// a sqlite path, a libsql:// url or a postgres:// url
	Url string `json:"url" env:"URL"`
}

type SourcesConfig struct {
	UsersUrl          string              `json:"users_url" env:"USERS_URL"`
	AddressesUrl      string              `json:"addresses_url" env:"ADDRESS_URL"`
	CreditCardsUrl    string              `json:"credit_cards_url" env:"CREDIT_CARD_URL"`
	SignInUrl         string              `json:"sign_in_url" env:"SIGN_IN_URL"`
	Email             string              `json:"email" env:"EMAIL"`
	Password          string              `json:"password" env:"PASSWORD"`
	WaitTimeout       configutil.Duration `json:"wait_timeout" env:"WAIT_TIMEOUT"`
	PollInterval      configutil.Duration `json:"poll_interval" env:"POLL_INTERVAL"`
	RequestTimeout    configutil.Duration `json:"request_timeout" env:"REQUEST_TIMEOUT"`
	RequestsPerSecond float64             `json:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// only meant for sources that are not behind cloudflare
	DisableCloudflareBypass bool `json:"disable_cloudflare_bypass" env:"DISABLE_CLOUDFLARE_BYPASS"`
}

type ServerConfig struct {
	Host string `json:"host" env:"HOST"`
	Port int    `json:"port" env:"PORT"`
}

type ScheduleConfig struct {
	Users       string `json:"users" env:"USERS"`
	Addresses   string `json:"addresses" env:"ADDRESSES"`
	CreditCards string `json:"credit_cards" env:"CREDIT_CARDS"`
}

type Config struct {
	Database  DatabaseConfig   `json:"database" envPrefix:"DATABASE_"`
	Sources   SourcesConfig    `json:"sources" envPrefix:"SOURCE_"`
	Server    ServerConfig     `json:"server" envPrefix:"SERVER_"`
	Schedule  ScheduleConfig   `json:"schedule" envPrefix:"SCHEDULE_"`
	Telemetry telemetry.Config `json:"telemetry" envPrefix:"TELEMETRY_"`
}

func defaultConfig() Config {
	specs := reconcile.DefaultSpecs()
	return Config{
		Database: DatabaseConfig{
			Url: "./db/database.db",
		},
		Sources: SourcesConfig{
			UsersUrl:          fetcher.DEFAULT_USERS_URL,
			SignInUrl:         fetcher.DEFAULT_SIGN_IN_URL,
			WaitTimeout:       configutil.Duration(10 * time.Second),
			PollInterval:      configutil.Duration(500 * time.Millisecond),
			RequestTimeout:    configutil.Duration(30 * time.Second),
			RequestsPerSecond: 2,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Schedule: ScheduleConfig{
			Users:       specs.Users,
			Addresses:   specs.Addresses,
			CreditCards: specs.CreditCards,
		},
	}
}

// loadConfig reads the config at path, recursive also looks for it in
// every parent of the working directory.
func loadConfig(path string, recursive bool) (Config, error) {
	return configutil.Load(path, defaultConfig(), configutil.LoadOptions{
		EnvPrefix: ENV_PREFIX,
		DotEnv:    []string{".env"},
		Recursive: recursive,
		Optional:  true,
	})
}

func (c Config) fetcherOptions() fetcher.Options {
	return fetcher.Options{
		UserURL:           c.Sources.UsersUrl,
		AddressURL:        c.Sources.AddressesUrl,
		CreditCardURL:     c.Sources.CreditCardsUrl,
		SignInURL:         c.Sources.SignInUrl,
		Email:             c.Sources.Email,
		Password:          c.Sources.Password,
		WaitTimeout:       c.Sources.WaitTimeout.Std(),
		PollInterval:      c.Sources.PollInterval.Std(),
		Timeout:           c.Sources.RequestTimeout.Std(),
		RequestsPerSecond: c.Sources.RequestsPerSecond,

		DisableCloudflareBypass: c.Sources.DisableCloudflareBypass,
	}
}

func (c Config) specs() reconcile.Specs {
	return reconcile.Specs{
		Users:       c.Schedule.Users,
		Addresses:   c.Schedule.Addresses,
		CreditCards: c.Schedule.CreditCards,
	}
}
