// Package s3 reads validation inputs from AWS S3 and S3-compatible storage.
package s3

// Config configures an S3 reader.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
//
// For S3-compatible stores (Wasabi, MinIO), set Endpoint and typically
// ForcePathStyle. When Endpoint is set, no default region is applied.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `mapstructure:"bucket"`

	// Region is the AWS region. Defaults to us-east-1 for AWS S3 when
	// not resolved from config or environment.
	Region string `mapstructure:"region"`

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint"`

	// Profile is the AWS profile name to use from shared config.
	Profile string `mapstructure:"profile"`

	// AccessKeyID is an explicit access key. If set, SecretAccessKey must also be set.
	AccessKeyID string `mapstructure:"access_key_id"`

	// SecretAccessKey is an explicit secret key. Required if AccessKeyID is set.
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// ForcePathStyle forces path-style URLs (bucket in path, not subdomain).
	ForcePathStyle bool `mapstructure:"force_path_style"`
}

// DefaultAWSRegion is the fallback region for AWS S3 when not specified.
const DefaultAWSRegion = "us-east-1"

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return &ConfigError{Field: "Bucket", Message: "bucket name is required"}
	}

	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}

	return nil
}

// ForBucket returns a copy of c bound to bucket.
func (c Config) ForBucket(bucket string) Config {
	c.Bucket = bucket
	return c
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "s3 config: " + e.Field + ": " + e.Message
}
