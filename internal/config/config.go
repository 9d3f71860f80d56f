package config

import (
	"fmt"
	"os"
	"strings"

	"lambdacloud/internal/logging"
	"lambdacloud/pkg/lambdacloud"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config contains application configuration
type Config struct {
	API      APIConfig      `yaml:"api"`
	Defaults DefaultsConfig `yaml:"defaults"`
	KeyStore KeyStoreConfig `yaml:"keystore"`

	// LogLevel is applied unless LOG_LEVEL is set
	LogLevel string `yaml:"log_level"`
}

// APIConfig holds the Lambda Cloud connection parameters
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	AuthMethod string `yaml:"auth_method"` // "bearer" or "basic"
	RetryMax   int    `yaml:"retry_max"`
}

// DefaultsConfig holds values used when a command does not specify them
type DefaultsConfig struct {
	Region       string `yaml:"region"`
	InstanceType string `yaml:"instance_type"`
	ImageFamily  string `yaml:"image_family"`
	Username     string `yaml:"username"`
}

// KeyStoreConfig selects where server-generated private keys are kept
type KeyStoreConfig struct {
	Dir           string   `yaml:"dir"`
	EtcdEndpoints []string `yaml:"etcd_endpoints"`
}

// ClientOptions converts the API section into client options
func (c *Config) ClientOptions() ([]lambdacloud.Option, error) {
	method, err := lambdacloud.ParseAuthMethod(c.API.AuthMethod)
	if err != nil {
		return nil, err
	}
	return []lambdacloud.Option{
		lambdacloud.WithBaseURL(c.API.BaseURL),
		lambdacloud.WithAuthMethod(method),
		lambdacloud.WithRetryMax(c.API.RetryMax),
	}, nil
}

// Path returns the config file location
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "lambdacloud.yaml"
}

// Load loads configuration from the YAML file, .env and the environment
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{
		API: APIConfig{
			BaseURL:    lambdacloud.DefaultBaseURL,
			AuthMethod: string(lambdacloud.AuthBearer),
		},
		Defaults: DefaultsConfig{
			Username: "ubuntu",
		},
		KeyStore: KeyStoreConfig{
			Dir: defaultKeyDir(),
		},
		LogLevel: "info",
	}

	configPath := Path()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Expand environment variables in string fields
	config.API.BaseURL = os.ExpandEnv(config.API.BaseURL)
	config.API.APIKey = os.ExpandEnv(config.API.APIKey)
	config.Defaults.Region = os.ExpandEnv(config.Defaults.Region)
	config.Defaults.InstanceType = os.ExpandEnv(config.Defaults.InstanceType)
	config.Defaults.ImageFamily = os.ExpandEnv(config.Defaults.ImageFamily)
	config.Defaults.Username = os.ExpandEnv(config.Defaults.Username)
	config.KeyStore.Dir = os.ExpandEnv(config.KeyStore.Dir)
	for i, ep := range config.KeyStore.EtcdEndpoints {
		config.KeyStore.EtcdEndpoints[i] = os.ExpandEnv(ep)
	}

	// Environment overrides
	if key := os.Getenv("LAMBDA_API_KEY"); key != "" {
		config.API.APIKey = key
	}
	if baseURL := os.Getenv("LAMBDA_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if method := os.Getenv("LAMBDA_AUTH_METHOD"); method != "" {
		config.API.AuthMethod = method
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required parameters
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.APIKey) == "" {
		return fmt.Errorf("API key is required (set api.api_key in config file or LAMBDA_API_KEY environment variable)")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if _, err := lambdacloud.ParseAuthMethod(c.API.AuthMethod); err != nil {
		return err
	}
	if c.API.RetryMax < 0 {
		return fmt.Errorf("api.retry_max must not be negative, got %d", c.API.RetryMax)
	}
	if c.Defaults.Region != "" && !lambdacloud.KnownRegion(lambdacloud.RegionCode(c.Defaults.Region)) {
		logging.Logger().Warn("Default region is not in the known region list, using it anyway",
			zap.String("region", c.Defaults.Region))
	}
	return nil
}

func defaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lambdacloud/keys"
	}
	return home + "/.lambdacloud/keys"
}
