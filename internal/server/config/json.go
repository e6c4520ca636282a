package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/credvault/internal/flagx"
	"github.com/dmitrijs2005/credvault/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// which accepts strings such as "5m" as well as integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero": only keys present in the
// file override the values already in Config.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	StorageBackend              *string         `json:"storage_backend"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`

	VaultBackend   *string `json:"vault_backend"`
	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`

	EncryptionKeyID   *string           `json:"encryption_key_id"`
	EncryptionKeys    map[string]string `json:"encryption_keys"`
	EncryptionKMSKeys map[string]string `json:"encryption_kms_keys"`
	KMSRegion         *string           `json:"kms_region"`

	OTPValidity      *timex.Duration `json:"otp_validity"`
	OTPRetention     *timex.Duration `json:"otp_retention"`
	OTPStore         *string         `json:"otp_store"`
	OTPPurgeSchedule *string         `json:"otp_purge_schedule"`
	RedisAddr        *string         `json:"redis_addr"`
	RedisPassword    *string         `json:"redis_password"`

	DeliveryBackend *string `json:"delivery_backend"`
	SMTPHost        *string `json:"smtp_host"`
	SMTPPort        *int    `json:"smtp_port"`
	SMTPUsername    *string `json:"smtp_username"`
	SMTPPassword    *string `json:"smtp_password"`
	SMTPFrom        *string `json:"smtp_from"`
	NATSURL         *string `json:"nats_url"`
	NATSSubject     *string `json:"nats_subject"`

	LogBackend *string `json:"log_backend"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}

	setString(&config.VaultBackend, c.VaultBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.EncryptionKeyID, c.EncryptionKeyID)
	if c.EncryptionKeys != nil {
		config.EncryptionKeys = c.EncryptionKeys
	}
	if c.EncryptionKMSKeys != nil {
		config.EncryptionKMSKeys = c.EncryptionKMSKeys
	}
	setString(&config.KMSRegion, c.KMSRegion)

	if c.OTPValidity != nil {
		config.OTPValidity = c.OTPValidity.Duration
	}
	if c.OTPRetention != nil {
		config.OTPRetention = c.OTPRetention.Duration
	}
	setString(&config.OTPStore, c.OTPStore)
	setString(&config.OTPPurgeSchedule, c.OTPPurgeSchedule)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)

	setString(&config.DeliveryBackend, c.DeliveryBackend)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.NATSSubject, c.NATSSubject)

	setString(&config.LogBackend, c.LogBackend)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
