/*
Earleyd starts the earley constraint server and begins listening for
connections.

Usage:

	earleyd [flags]
	earleyd [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds to them
using a REST protocol. By default it listens on localhost:8080. This can be
changed with the --listen/-l flag (or the matching environment variable).
The flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the port preceded by a colon, such as ":6001".

If a JWT token secret is not given, one is generated at startup. As a
consequence, in this mode of operation all tokens become invalid as soon as
the server shuts down. This is suitable for testing, but a secret must be
given via either a flag or environment variable if running in production.

The flags are:

	-v, --version
		Give the current version of the earley constraint server and then
		exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, defaults to the value of environment variable
		EARLEY_LISTEN_ADDRESS, and if that is not given, defaults to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If fewer than 32
		bytes are given, it is repeated until it is at least that long; the
		maximum size is 64 bytes. If not given, defaults to the value of
		environment variable EARLEY_TOKEN_SECRET. If no secret is specified,
		a random secret is generated, and any tokens issued with it become
		invalid as soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of: inmem,
		sqlite. inmem has no further params; sqlite needs the path to the
		data directory, e.g. sqlite:path/to/db_dir. If not given, defaults
		to the value of environment variable EARLEY_DATABASE. If no DB
		driver is specified, an in-memory database is used.

	-c, --config PATH
		Load defaults from the TOML config file at PATH before applying
		flags and environment variables, which still take precedence over
		anything set in the file. If not given, defaults to the value of
		environment variable EARLEY_CONFIG.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/earley/internal/version"
	"github.com/dekarrin/earley/server"
	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "EARLEY_LISTEN_ADDRESS"
	EnvSecret = "EARLEY_TOKEN_SECRET"
	EnvDB     = "EARLEY_DATABASE"
	EnvConfig = "EARLEY_CONFIG"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the earley constraint server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagConfig  = pflag.StringP("config", "c", "", "Load defaults from the TOML config file at this path.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("earleyd (earley constraint server v%s)\n", version.ServerCurrent)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	fileCfg, err := resolveFileConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	addr, port, err := resolveListenAddr(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	db, err := resolveDBConfig(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	tokSecret, err := resolveTokenSecret(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}

	cfg := server.Config{TokenSecret: tokSecret, DB: db}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG server initialized")

	// immediately create the admin user so there is someone to log in as.
	_, err = srv.CreateUser(context.Background(), "admin", "password", "bogus@example.com", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  added initial admin user with password 'password'...")
	}

	log.Printf("INFO  starting earley constraint server %s...", version.ServerCurrent)
	if err := srv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server stopped: %s", err.Error())
	}
}

// resolveFileConfig loads the --config/EARLEY_CONFIG TOML file, if any was
// given. A zero-valued FileConfig is returned (no error) if neither is set.
func resolveFileConfig() (server.FileConfig, error) {
	path := os.Getenv(EnvConfig)
	if pflag.Lookup("config").Changed {
		path = *flagConfig
	}
	if path == "" {
		return server.FileConfig{}, nil
	}
	return server.LoadConfigFile(path)
}

func resolveListenAddr(fileCfg server.FileConfig) (string, int, error) {
	listenAddr := fileCfg.Listen
	if v := os.Getenv(EnvListen); v != "" {
		listenAddr = v
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		return "localhost", 8080, nil
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err := strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}

	return bindParts[0], port, nil
}

func resolveDBConfig(fileCfg server.FileConfig) (server.Database, error) {
	dbConnStr := fileCfg.DB
	if v := os.Getenv(EnvDB); v != "" {
		dbConnStr = v
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		return server.Database{Type: server.DatabaseInMemory}, nil
	}
	return server.ParseDBConnString(dbConnStr)
}

func resolveTokenSecret(fileCfg server.FileConfig) ([]byte, error) {
	tokSecStr := fileCfg.TokenSecret
	if v := os.Getenv(EnvSecret); v != "" {
		tokSecStr = v
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	if tokSecStr == "" {
		tokSecret := make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			return nil, fmt.Errorf("could not generate token secret: %w", err)
		}
		log.Printf("WARN  using generated token secret; all tokens issued will become invalid at shutdown")
		return tokSecret, nil
	}

	tokSecret := []byte(tokSecStr)
	for len(tokSecret) < server.MinSecretSize {
		doubled := make([]byte, len(tokSecret)*2)
		copy(doubled, tokSecret)
		copy(doubled[len(tokSecret):], tokSecret)
		tokSecret = doubled
	}
	if len(tokSecret) > server.MaxSecretSize {
		return nil, fmt.Errorf("token secret is %d bytes, but it must be <= %d bytes", len(tokSecret), server.MaxSecretSize)
	}

	return tokSecret, nil
}
