package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/flagx"
)

// parseFlags applies the short command-line flags:
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   database DSN (postgres:// URL or SQLite path)
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-z string   display timezone (IANA name)
//	-l string   log level
//	-o int      collaborator timeout, seconds
//	-k string   dream dictionary path
//	-i string   image store (inline|s3)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Unknown arguments are filtered out first so subcommand flags do not clash.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-z", "-l", "-o", "-k", "-i", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("oneiromind", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.DisplayTimezone, "z", config.DisplayTimezone, "display timezone")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	timeoutSeconds := fs.Int("o", int(config.CollaboratorTimeout.Seconds()), "collaborator timeout (in seconds)")
	fs.StringVar(&config.DictionaryPath, "k", config.DictionaryPath, "dream dictionary path")
	fs.StringVar(&config.ImageStore, "i", config.ImageStore, "image store (inline|s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// durations are only replaced when given, so finer values from JSON or
	// env are not truncated to whole minutes or seconds
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
		case "o":
			config.CollaboratorTimeout = time.Duration(*timeoutSeconds) * time.Second
		}
	})
	return nil
}
