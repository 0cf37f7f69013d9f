package main

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "resumevec"

// Config is the full configuration of the service, loaded from the config
// file, environment variables and flags.
type Config struct {
	Addr        string           `mapstructure:"addr"`
	MaxFileSize int64            `mapstructure:"max-file-size"`
	Debug       bool             `mapstructure:"debug"`
	JSON        bool             `mapstructure:"json"`
	Embedder    *EmbedderConfig  `mapstructure:"embedder"`
	Store       *StoreConfig     `mapstructure:"store"`
	BlobStore   *BlobStoreConfig `mapstructure:"blobstore"`
}

type EmbedderConfig struct {
	// Backend selects the embedding provider: openai, gemini or hash.
	Backend   string `mapstructure:"backend"`
	APIKey    string `mapstructure:"api-key"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

type StoreConfig struct {
	// Backend selects record storage: memory or postgres.
	Backend     string `mapstructure:"backend"`
	DatabaseURL string `mapstructure:"database-url"`
}

type BlobStoreConfig struct {
	// Backend selects raw document storage: none, s3 or minio.
	Backend   string `mapstructure:"backend"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	UseSSL    bool   `mapstructure:"use-ssl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resumevec is a resume upload and semantic similarity search service",
	}
)

// execute executes the root command.
func execute() error {
	return rootCmd.Execute()
}

func init() {
	bindEnv := map[string]string{
		"embedder.api-key":     "RESUMEVEC_EMBEDDER_API_KEY",
		"store.database-url":   "RESUMEVEC_DATABASE_URL",
		"blobstore.access-key": "RESUMEVEC_BLOB_ACCESS_KEY",
		"blobstore.secret-key": "RESUMEVEC_BLOB_SECRET_KEY",
	}
	for key, env := range bindEnv {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resumevec.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The config file is optional; everything has a default or an
	// environment binding.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Addr:     ":8080",
		Embedder: &EmbedderConfig{Backend: "hash", Dimension: 384},
		Store:    &StoreConfig{Backend: "memory"},
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Embedder == nil {
		config.Embedder = &EmbedderConfig{Backend: "hash", Dimension: 384}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{Backend: "memory"}
	}

	return config, nil
}
