package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/confkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-store", "-d", "-m", "-n", "-s", "-l", "-env", "-uploads", "-upload-root", "-u", "-p", "-b", "-r", "-e"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            HTTP bind address (e.g., ":5000")
//	-g string            gRPC health bind address, empty disables it
//	-store string        store driver: postgres | mongo
//	-d string            PostgreSQL DSN
//	-m string            MongoDB URI
//	-n string            database name (mongo)
//	-s string            session signing secret
//	-l string            log level
//	-env string          environment name
//	-uploads string      upload driver: fs | s3 | memory
//	-upload-root string  directory for the fs upload driver
//	-u, -p, -b, -r, -e   S3 user, password, bucket, region, endpoint
//
// args are filtered through flagx.FilterArgs first so unrelated flags (the
// config file flag, test runner flags) do not make parsing fail.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("confkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "store driver (postgres|mongo)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.DatabaseName, "n", config.DatabaseName, "database name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.Environment, "env", config.Environment, "environment")
	fs.StringVar(&config.UploadDriver, "uploads", config.UploadDriver, "upload driver (fs|s3|memory)")
	fs.StringVar(&config.UploadRoot, "upload-root", config.UploadRoot, "upload directory")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(args)
}
