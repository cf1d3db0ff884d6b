package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Interval fields use
// timex.Duration so both "10s" and integer nanoseconds are accepted. Only
// the keys present in the file override the current values.
type FileConfig struct {
	Environment                 *string         `json:"environment" yaml:"environment"`
	HTTPAddr                    *string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                    *string         `json:"grpc_addr" yaml:"grpc_addr"`
	StoreDriver                 *string         `json:"store_driver" yaml:"store_driver"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	MongoURI                    *string         `json:"mongodb_uri" yaml:"mongodb_uri"`
	DatabaseName                *string         `json:"database_name" yaml:"database_name"`
	StoreTimeout                *timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	MongoServerSelectionTimeout *timex.Duration `json:"mongo_server_selection_timeout" yaml:"mongo_server_selection_timeout"`
	MongoConnectTimeout         *timex.Duration `json:"mongo_connect_timeout" yaml:"mongo_connect_timeout"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	SessionLifetime             *timex.Duration `json:"session_lifetime" yaml:"session_lifetime"`
	CookieName                  *string         `json:"cookie_name" yaml:"cookie_name"`
	CookieSecure                *bool           `json:"cookie_secure" yaml:"cookie_secure"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`
	UploadDriver                *string         `json:"upload_driver" yaml:"upload_driver"`
	UploadRoot                  *string         `json:"upload_root" yaml:"upload_root"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	PaymentSuccessRate          *float64        `json:"payment_success_rate" yaml:"payment_success_rate"`
	MetricsEnabled              *bool           `json:"metrics_enabled" yaml:"metrics_enabled"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile reads path and overlays its values onto config. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.DatabaseName, c.DatabaseName)
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setDuration(&config.MongoServerSelectionTimeout, c.MongoServerSelectionTimeout)
	setDuration(&config.MongoConnectTimeout, c.MongoConnectTimeout)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionLifetime, c.SessionLifetime)
	setString(&config.CookieName, c.CookieName)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.UploadDriver, c.UploadDriver)
	setString(&config.UploadRoot, c.UploadRoot)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.PaymentSuccessRate != nil {
		config.PaymentSuccessRate = *c.PaymentSuccessRate
	}
	if c.MetricsEnabled != nil {
		config.MetricsEnabled = *c.MetricsEnabled
	}
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
