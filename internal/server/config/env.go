package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
//
// HTTP_ADDR wins over PORT; PORT alone binds all interfaces.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APP_ENV", &config.Environment)
	if v, ok := lookup("PORT"); ok && v != "" {
		config.HTTPAddr = ":" + v
	}
	str("HTTP_ADDR", &config.HTTPAddr)
	if v, ok := lookup("GRPC_ADDR"); ok {
		config.GRPCAddr = v
	}
	str("STORE_DRIVER", &config.StoreDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("MONGODB_URI", &config.MongoURI)
	str("DATABASE_NAME", &config.DatabaseName)
	str("SECRET_KEY", &config.SecretKey)
	str("COOKIE_NAME", &config.CookieName)
	str("LOG_LEVEL", &config.LogLevel)
	str("UPLOAD_DRIVER", &config.UploadDriver)
	str("UPLOAD_ROOT", &config.UploadRoot)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if err := envDuration(lookup, "STORE_TIMEOUT", &config.StoreTimeout); err != nil {
		return err
	}
	if err := envDuration(lookup, "SESSION_LIFETIME", &config.SessionLifetime); err != nil {
		return err
	}
	if err := envBool(lookup, "COOKIE_SECURE", &config.CookieSecure); err != nil {
		return err
	}
	if err := envBool(lookup, "METRICS_ENABLED", &config.MetricsEnabled); err != nil {
		return err
	}
	if v, ok := lookup("PAYMENT_SUCCESS_RATE"); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PAYMENT_SUCCESS_RATE: %w", err)
		}
		config.PaymentSuccessRate = rate
	}
	return nil
}

func envDuration(lookup func(string) (string, bool), key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(lookup func(string) (string, bool), key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
