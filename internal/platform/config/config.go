package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/SscSPs/mma_local/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	pairingKeyBytes    = 16
	defaultJWTSecret   = "a-very-secret-key-should-be-longer-and-random"
	defaultDataPath    = "./data/mma_local.db"
	defaultBackupDir   = "./data/backups"
	defaultJWTIssuer   = "mma-local"
	defaultRateLimit   = "300-M"
	defaultPolicy      = "orphan"
	defaultCORSOrigins = "http://localhost:3000"
)

// Config holds application configuration.
type Config struct {
	// Local store
	DataPath             string
	LockTimeout          time.Duration
	RetryBound           int
	DeletePolicy         string
	NotificationLeadDays int
	DeadlineScanInterval time.Duration

	// Encryption at rest; EncryptedFields maps table -> fields
	EncryptionPassphrase string
	EncryptedFields      map[string][]string

	// Sync
	SyncInterval      time.Duration
	SyncEndpointURL   string
	DeviceID          string
	DeviceSecret      string
	OAuthClientID     string `mapstructure:"SYNC_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `mapstructure:"SYNC_OAUTH_CLIENT_SECRET"`
	OAuthTokenURL     string `mapstructure:"SYNC_OAUTH_TOKEN_URL"`
	OAuthScopes       []string
	// GoogleAudience switches the HTTP remote to Google-signed ID tokens.
	GoogleAudience        string
	GoogleCredentialsFile string
	RemoteDatabaseURL     string
	RemoteDBMaxConns      int32

	// Backups
	BackupDir       string
	BackupGCSBucket string
	BackupGCSPrefix string

	// Local API
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	PairingKey        string
	RateLimit         string
	CORSOrigins       []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("MMA_DATA_PATH", defaultDataPath)
	viper.SetDefault("LOCK_TIMEOUT", "5s")
	viper.SetDefault("RETRY_BOUND", 3)
	viper.SetDefault("DELETE_POLICY", defaultPolicy)
	viper.SetDefault("NOTIFICATION_LEAD_DAYS", 3)
	viper.SetDefault("DEADLINE_SCAN_INTERVAL", "1h")
	viper.SetDefault("ENCRYPTION_PASSPHRASE", "")
	viper.SetDefault("ENCRYPTED_FIELDS", "")
	viper.SetDefault("SYNC_INTERVAL", "30s")
	viper.SetDefault("SYNC_ENDPOINT_URL", "")
	viper.SetDefault("DEVICE_ID", "")
	viper.SetDefault("DEVICE_SECRET", "")
	viper.SetDefault("SYNC_OAUTH_CLIENT_ID", "")
	viper.SetDefault("SYNC_OAUTH_CLIENT_SECRET", "")
	viper.SetDefault("SYNC_OAUTH_TOKEN_URL", "")
	viper.SetDefault("SYNC_OAUTH_SCOPES", "")
	viper.SetDefault("SYNC_GOOGLE_AUDIENCE", "")
	viper.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PGSQL_MAX_CONNS", 4)
	viper.SetDefault("BACKUP_DIR", defaultBackupDir)
	viper.SetDefault("BACKUP_GCS_BUCKET", "")
	viper.SetDefault("BACKUP_GCS_PREFIX", "mma-local")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRY_DURATION", "24h")
	viper.SetDefault("JWT_ISSUER", defaultJWTIssuer)
	viper.SetDefault("PAIRING_KEY", "")
	viper.SetDefault("RATE_LIMIT", defaultRateLimit)
	viper.SetDefault("CORS_ORIGINS", defaultCORSOrigins)

	// Values from .env were exported above, actual environment variables win over defaults.
	viper.AutomaticEnv()

	cfg := &Config{
		DataPath:              viper.GetString("MMA_DATA_PATH"),
		RetryBound:            viper.GetInt("RETRY_BOUND"),
		DeletePolicy:          strings.ToLower(viper.GetString("DELETE_POLICY")),
		NotificationLeadDays:  viper.GetInt("NOTIFICATION_LEAD_DAYS"),
		EncryptionPassphrase:  viper.GetString("ENCRYPTION_PASSPHRASE"),
		SyncEndpointURL:       viper.GetString("SYNC_ENDPOINT_URL"),
		DeviceID:              viper.GetString("DEVICE_ID"),
		DeviceSecret:          viper.GetString("DEVICE_SECRET"),
		OAuthClientID:         viper.GetString("SYNC_OAUTH_CLIENT_ID"),
		OAuthClientSecret:     viper.GetString("SYNC_OAUTH_CLIENT_SECRET"),
		OAuthTokenURL:         viper.GetString("SYNC_OAUTH_TOKEN_URL"),
		OAuthScopes:           splitList(viper.GetString("SYNC_OAUTH_SCOPES")),
		GoogleAudience:        viper.GetString("SYNC_GOOGLE_AUDIENCE"),
		GoogleCredentialsFile: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		RemoteDatabaseURL:     viper.GetString("PGSQL_URL"),
		RemoteDBMaxConns:      viper.GetInt32("PGSQL_MAX_CONNS"),
		BackupDir:             viper.GetString("BACKUP_DIR"),
		BackupGCSBucket:       viper.GetString("BACKUP_GCS_BUCKET"),
		BackupGCSPrefix:       viper.GetString("BACKUP_GCS_PREFIX"),
		Port:                  viper.GetString("PORT"),
		IsProduction:          viper.GetBool("IS_PRODUCTION"),
		JWTSecret:             viper.GetString("JWT_SECRET"),
		JWTIssuer:             viper.GetString("JWT_ISSUER"),
		PairingKey:            viper.GetString("PAIRING_KEY"),
		RateLimit:             viper.GetString("RATE_LIMIT"),
		CORSOrigins:           splitList(viper.GetString("CORS_ORIGINS")),
	}

	cfg.LockTimeout = durationOr("LOCK_TIMEOUT", 5*time.Second)
	cfg.DeadlineScanInterval = durationOr("DEADLINE_SCAN_INTERVAL", time.Hour)
	cfg.SyncInterval = durationOr("SYNC_INTERVAL", 30*time.Second)
	cfg.JWTExpiryDuration = durationOr("JWT_EXPIRY_DURATION", 24*time.Hour)

	fields, err := ParseEncryptedFields(viper.GetString("ENCRYPTED_FIELDS"))
	if err != nil {
		return nil, err
	}
	cfg.EncryptedFields = fields

	if cfg.DataPath == "" {
		cfg.DataPath = defaultDataPath
		slog.Warn("MMA_DATA_PATH is empty, using default", slog.String("path", cfg.DataPath))
	}
	if cfg.RetryBound < 1 {
		slog.Warn("Invalid RETRY_BOUND, defaulting to 3", slog.Int("value", cfg.RetryBound))
		cfg.RetryBound = 3
	}
	if cfg.DeletePolicy != "orphan" && cfg.DeletePolicy != "reject" {
		return nil, fmt.Errorf("invalid DELETE_POLICY %q: must be orphan or reject", cfg.DeletePolicy)
	}
	if cfg.NotificationLeadDays < 0 {
		cfg.NotificationLeadDays = 0
	}
	if len(cfg.EncryptedFields) > 0 && cfg.EncryptionPassphrase == "" {
		return nil, fmt.Errorf("ENCRYPTED_FIELDS is set but ENCRYPTION_PASSPHRASE is empty")
	}
	if cfg.DeviceID == "" {
		host, _ := os.Hostname()
		cfg.DeviceID = "device-" + host
		slog.Warn("DEVICE_ID not set, derived from hostname", slog.String("device_id", cfg.DeviceID))
	}
	if cfg.SyncEndpointURL != "" && cfg.DeviceSecret == "" && cfg.OAuthClientID == "" && cfg.GoogleAudience == "" {
		slog.Warn("SYNC_ENDPOINT_URL is set without DEVICE_SECRET, SYNC_OAUTH_CLIENT_ID or SYNC_GOOGLE_AUDIENCE; requests will be unauthenticated")
	}
	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.PairingKey == "" {
		key, err := utils.GenerateSecureRandomString(pairingKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate pairing key: %w", err)
		}
		cfg.PairingKey = key
		slog.Warn("PAIRING_KEY not set. Generated a pairing key for this run; set PAIRING_KEY to keep it across restarts.", slog.String("pairing_key", key))
	}

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			slog.Warn("Invalid duration, using default", slog.String("key", key), slog.String("value", raw), slog.Duration("default", fallback))
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseEncryptedFields reads a list such as "loans.notes,transactions.description".
func ParseEncryptedFields(raw string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, item := range splitList(raw) {
		table, field, ok := strings.Cut(item, ".")
		if !ok || table == "" || field == "" {
			return nil, fmt.Errorf("invalid ENCRYPTED_FIELDS entry %q: expected table.field", item)
		}
		out[table] = append(out[table], field)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
