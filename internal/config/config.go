// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	IPFS        IPFSConfig
	Story       StoryConfig
	Upload      UploadConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	AutoMigrate  bool
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type StorageConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

type IPFSConfig struct {
	PinataBaseURL string
	PinataJWT     string
	GatewayHost   string
}

type StoryConfig struct {
	RPCURL                string
	ChainID               int64
	PrivateKey            string
	RegistrationWorkflows string
	LicensingModule       string
	PILicenseTemplate     string
	WIPToken              string
	ExplorerBaseURL       string
	SignTimeout           int // seconds to wait for the mint tx to be accepted
	ReceiptTimeout        int // seconds to poll for the tx receipt
}

type UploadConfig struct {
	MaxSizeBytes int64
	Folder       string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			// Mint requests block on signing and receipt polling, so the
			// write deadline must cover both budgets.
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 300),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "storymint"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24), // 24 hours
		},
		Storage: StorageConfig{
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("STORAGE_BUCKET", "assets"),
			PublicBaseURL:   getEnv("STORAGE_PUBLIC_BASE_URL", ""),
		},
		IPFS: IPFSConfig{
			PinataBaseURL: getEnv("PINATA_BASE_URL", "https://api.pinata.cloud"),
			PinataJWT:     getEnv("PINATA_JWT", ""),
			GatewayHost:   getEnv("IPFS_GATEWAY_HOST", "gateway.pinata.cloud"),
		},
		Story: StoryConfig{
			RPCURL:                getEnv("STORY_RPC_URL", "https://mainnet.storyrpc.io"),
			ChainID:               int64(getEnvAsInt("STORY_CHAIN_ID", 1514)),
			PrivateKey:            getEnv("STORY_PRIVATE_KEY", ""),
			RegistrationWorkflows: getEnv("STORY_REGISTRATION_WORKFLOWS", "0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424"),
			LicensingModule:       getEnv("STORY_LICENSING_MODULE", "0x04fbd8a2e56dd85CFD5500A4A4DfA955B9f1dE6f"),
			PILicenseTemplate:     getEnv("STORY_PIL_LICENSE_TEMPLATE", "0x2E896b0b2Fdb7457499B56AAaA4AE55BCB4Cd316"),
			WIPToken:              getEnv("STORY_WIP_TOKEN", "0x1514000000000000000000000000000000000000"),
			ExplorerBaseURL:       getEnv("STORY_EXPLORER_BASE_URL", "https://explorer.story.foundation"),
			SignTimeout:           getEnvAsInt("STORY_SIGN_TIMEOUT", 120),
			ReceiptTimeout:        getEnvAsInt("STORY_RECEIPT_TIMEOUT", 90),
		},
		Upload: UploadConfig{
			MaxSizeBytes: int64(getEnvAsInt("UPLOAD_MAX_SIZE_BYTES", 50*1024*1024)), // 50MB
			Folder:       getEnv("UPLOAD_FOLDER", "ip-assets"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Story.PrivateKey == "" && c.Environment == "production" {
		return fmt.Errorf("story signer private key is required in production")
	}

	if c.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("upload size ceiling must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
