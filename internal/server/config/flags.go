package config

import (
	"flag"
	"os"
	"time"

	"github.com/croplabs/picstore/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w int      max concurrent uploads
//	-r int      object-store put attempts
//	-y int      retry base delay, milliseconds
//	-v int      schema registry version (0 = latest)
//	-m          halt the whole upload on a missing picture metadata file
//
// Args are first filtered to the flags handled here via flagx.FilterArgs,
// avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-u", "-p", "-g", "-e", "-w", "-r", "-y", "-v", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.IntVar(&config.MaxConcurrentUploads, "w", config.MaxConcurrentUploads, "max concurrent uploads")
	fs.IntVar(&config.PutRetries, "r", config.PutRetries, "object-store put attempts")
	retryBaseDelay := fs.Int("y", int(config.RetryBaseDelay.Milliseconds()), "retry base delay (in milliseconds)")
	fs.IntVar(&config.SchemaVersion, "v", config.SchemaVersion, "schema registry version (0 = latest)")
	fs.BoolVar(&config.HaltOnMissingPictureMeta, "m", config.HaltOnMissingPictureMeta, "halt upload on missing picture metadata")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RetryBaseDelay = time.Duration(*retryBaseDelay) * time.Millisecond
}
