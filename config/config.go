// api/config/config.go
package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Turnstile     TurnstileConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// TurnstileConfiguration stores the settings for the token gate.
// An empty Secret disables the gate entirely.
type TurnstileConfiguration struct {
	Secret        string
	VerifyURL     string
	VerifyTimeout time.Duration
	CacheTTL      time.Duration
}

// RedisConfiguration stores data for the token cache connection.
// An empty URL disables the gate entirely.
type RedisConfiguration struct {
	URL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("turnstile.secret", "")
	viper.SetDefault("turnstile.verifyURL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	viper.SetDefault("turnstile.verifyTimeout", "5s")
	viper.SetDefault("turnstile.cacheTTL", "10m")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("log.file", "logging/api.log")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
