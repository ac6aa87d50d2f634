package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/croplabs/picstore/internal/flagx"
	"github.com/croplabs/picstore/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// Interval fields use timex.Duration so the file can spell them either as
// strings ("250ms") or integer nanoseconds. After unmarshalling, values are
// copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr             string         `json:"endpoint_addr"`
	DatabaseDSN              string         `json:"database_dsn"`
	SecretKey                string         `json:"secret_key"`
	S3RootUser               string         `json:"s3_root_user"`
	S3RootPassword           string         `json:"s3_root_password"`
	S3Region                 string         `json:"s3_region"`
	S3BaseEndpoint           string         `json:"s3_base_endpoint"`
	MaxConcurrentUploads     int            `json:"max_concurrent_uploads"`
	PutRetries               int            `json:"put_retries"`
	RetryBaseDelay           timex.Duration `json:"retry_base_delay"`
	SchemaVersion            int            `json:"schema_version"`
	HaltOnMissingPictureMeta bool           `json:"halt_on_missing_picture_meta"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags;
// when neither is set, no JSON file is loaded. An unreadable or invalid
// file panics: an explicitly requested config that cannot be honored is a
// startup error, not something to limp past.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddr:             config.EndpointAddr,
		DatabaseDSN:              config.DatabaseDSN,
		SecretKey:                config.SecretKey,
		S3RootUser:               config.S3RootUser,
		S3RootPassword:           config.S3RootPassword,
		S3Region:                 config.S3Region,
		S3BaseEndpoint:           config.S3BaseEndpoint,
		MaxConcurrentUploads:     config.MaxConcurrentUploads,
		PutRetries:               config.PutRetries,
		RetryBaseDelay:           timex.Duration{Duration: config.RetryBaseDelay},
		SchemaVersion:            config.SchemaVersion,
		HaltOnMissingPictureMeta: config.HaltOnMissingPictureMeta,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.MaxConcurrentUploads = c.MaxConcurrentUploads
	config.PutRetries = c.PutRetries
	config.RetryBaseDelay = time.Duration(c.RetryBaseDelay.Duration)
	config.SchemaVersion = c.SchemaVersion
	config.HaltOnMissingPictureMeta = c.HaltOnMissingPictureMeta
}
