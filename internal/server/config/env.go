package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/credvault/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "CREDVAULT_"

// parseEnv overlays CREDVAULT_* environment variables onto config. A dotenv
// file named by -n or -env is loaded first; variables already present in the
// process environment win over the file. Unset or empty variables leave the
// current value alone. A malformed value panics.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("STORAGE_BACKEND", &config.StorageBackend)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)

	envString("VAULT_BACKEND", &config.VaultBackend)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	envString("ENCRYPTION_KEY_ID", &config.EncryptionKeyID)
	envPairs("ENCRYPTION_KEYS", &config.EncryptionKeys)
	envPairs("ENCRYPTION_KMS_KEYS", &config.EncryptionKMSKeys)
	envString("KMS_REGION", &config.KMSRegion)

	envDuration("OTP_VALIDITY", &config.OTPValidity)
	envDuration("OTP_RETENTION", &config.OTPRetention)
	envString("OTP_STORE", &config.OTPStore)
	envString("OTP_PURGE_SCHEDULE", &config.OTPPurgeSchedule)
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("REDIS_PASSWORD", &config.RedisPassword)

	envString("DELIVERY_BACKEND", &config.DeliveryBackend)
	envString("SMTP_HOST", &config.SMTPHost)
	envInt("SMTP_PORT", &config.SMTPPort)
	envString("SMTP_USERNAME", &config.SMTPUsername)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("SMTP_FROM", &config.SMTPFrom)
	envString("NATS_URL", &config.NATSURL)
	envString("NATS_SUBJECT", &config.NATSSubject)

	envString("LOG_BACKEND", &config.LogBackend)
}

func getEnv(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}

func envString(key string, dst *string) {
	if v, ok := getEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := getEnv(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
	}
	*dst = i
}

func envDuration(key string, dst *time.Duration) {
	v, ok := getEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
	}
	*dst = d
}

// envPairs reads "id=value,id2=value2".
func envPairs(key string, dst *map[string]string) {
	v, ok := getEnv(key)
	if !ok {
		return
	}
	m, err := ParsePairs(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
	}
	*dst = m
}

// ParsePairs splits a comma separated list of id=value pairs.
func ParsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, value, ok := strings.Cut(part, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("malformed pair %q", part)
		}
		out[id] = value
	}
	return out, nil
}
