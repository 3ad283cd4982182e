package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "internify"
)

type Config struct {
	Gateway  *GatewayConfig  `mapstructure:"gateway"`
	AI       *AIConfig       `mapstructure:"ai"`
	Storage  *StorageConfig  `mapstructure:"storage"`
	Listings *ListingsConfig `mapstructure:"listings"`
	Auth     *AuthConfig     `mapstructure:"auth"`
	Theme    string          `mapstructure:"theme"`
	LogFile  string          `mapstructure:"log-file"`
}

type GatewayConfig struct {
	// URL of a remote gateway. When empty the client talks to Gemini in-process.
	URL          string        `mapstructure:"url"`
	Listen       string        `mapstructure:"listen"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    float64       `mapstructure:"rate-limit"`
	Burst        int           `mapstructure:"burst"`
	MaxBodyBytes int64         `mapstructure:"max-body-bytes"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
	ListingCount int    `mapstructure:"listing-count"`
}

type StorageConfig struct {
	// Backend is one of file, redis or memory.
	Backend     string        `mapstructure:"backend"`
	Path        string        `mapstructure:"path"`
	RedisURL    string        `mapstructure:"redis-url"`
	RedisPrefix string        `mapstructure:"redis-prefix"`
	RedisTTL    time.Duration `mapstructure:"redis-ttl"`
}

type ListingsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	Top             int           `mapstructure:"top"`
}

type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	JWTSecret     string        `mapstructure:"jwt-secret"`
	JWTSecretFile string        `mapstructure:"jwt-secret-file"`
	TokenTTL      time.Duration `mapstructure:"token-ttl"`
	BcryptCost    int           `mapstructure:"bcrypt-cost"`
	Pepper        string        `mapstructure:"pepper"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "internify recommends internships that fit a student's resume",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is internify.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("theme", "light")
	v.SetDefault("log-file", "")

	v.SetDefault("gateway.url", "")
	v.SetDefault("gateway.listen", ":8888")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("gateway.rate-limit", 2.0)
	v.SetDefault("gateway.burst", 5)
	v.SetDefault("gateway.max-body-bytes", 15<<20)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.listing-count", 12)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "internify-state.json")
	v.SetDefault("storage.redis-url", "redis://localhost:6379/0")
	v.SetDefault("storage.redis-prefix", app)
	v.SetDefault("storage.redis-ttl", time.Duration(0))

	v.SetDefault("listings.ttl", 30*time.Minute)
	v.SetDefault("listings.refresh-interval", 37*time.Minute)
	v.SetDefault("listings.top", 5)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt-secret", "")
	v.SetDefault("auth.jwt-secret-file", "")
	v.SetDefault("auth.token-ttl", time.Hour)
	v.SetDefault("auth.bcrypt-cost", 12)
	v.SetDefault("auth.pepper", "")
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The default config file is optional, an explicit one is not.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	return config, nil
}
