// FILE: zkpauth/src/cmd/zkpauth-client/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"zkpauth/src/internal/client"
	"zkpauth/src/internal/config"
	"zkpauth/src/internal/version"
	"zkpauth/src/internal/zkp"

	"github.com/lixenwraith/log"
)

func main() {
	flagCfg, configArgs, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if flagCfg.ConfigFile != "" {
		os.Setenv("ZKPAUTH_CONFIG_FILE", flagCfg.ConfigFile)
	}

	cfg, err := config.LoadWithCLI(configArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogger()
	if err := logger.InitWithDefaults(clientLogArgs(cfg)...); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Shutdown(2 * time.Second)

	if err := run(cfg, flagCfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Shutdown(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg *config.Config, flagCfg *flagConfig, logger *log.Logger) error {
	group, err := zkp.Lookup(cfg.Group.Name)
	if err != nil {
		return err
	}
	derivation, err := zkp.ParseDerivation(cfg.Client.Derivation)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tr, err := client.NewTransport(ctx, cfg.Client, logger)
	if err != nil {
		return err
	}
	defer tr.Close()

	driver := client.NewDriver(group, tr, derivation, logger)
	in := bufio.NewReader(os.Stdin)

	user := flagCfg.User
	if user == "" {
		if user, err = promptLine(in, "Username: "); err != nil {
			return err
		}
	}

	callTimeout := time.Duration(cfg.Client.TimeoutSeconds) * time.Second

	if flagCfg.Register {
		password, err := promptPassword(in, "Password: ")
		if err != nil {
			return err
		}
		callCtx, callCancel := context.WithTimeout(ctx, callTimeout)
		err = driver.Register(callCtx, user, password)
		callCancel()
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s\n", user)
	}

	password, err := promptPassword(in, "Password to login: ")
	if err != nil {
		return err
	}

	callCtx, callCancel := context.WithTimeout(ctx, callTimeout)
	defer callCancel()
	sessionID, err := driver.Login(callCtx, user, password)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in, session id: %s\n", sessionID)
	return nil
}

// clientLogArgs keeps interactive output clean unless debug is requested.
func clientLogArgs(cfg *config.Config) []string {
	if cfg.Logging.Level != "debug" {
		return []string{"disable_file=true", "enable_stdout=false", "level=255"}
	}
	return []string{
		"disable_file=true",
		"enable_stdout=true",
		"stdout_target=stderr",
		fmt.Sprintf("level=%d", int(log.LevelDebug)),
	}
}

type flagConfig struct {
	ConfigFile  string
	User        string
	Register    bool
	ShowVersion bool
}

func parseFlags(args []string) (*flagConfig, []string, error) {
	fc := &flagConfig{}

	fs := flag.NewFlagSet("zkpauth-client", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "zkpauth-client - register and log in against a zkpauth server\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [--client.key=value ...]\n\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Log in over HTTP behind a reverse proxy prefix\n")
		fmt.Fprintf(os.Stderr, "  %s -register=false --client.transport=http --client.address=auth.example.com:443 --client.path_prefix=/zkp\n", os.Args[0])
	}
	fs.StringVar(&fc.ConfigFile, "config", "", "Config file path")
	fs.StringVar(&fc.User, "user", "", "Username; prompted for when empty")
	fs.BoolVar(&fc.Register, "register", true, "Register the user before logging in")
	fs.BoolVar(&fc.ShowVersion, "version", false, "Show version information")

	own, overrides := config.SplitOverrides(args)
	if err := fs.Parse(own); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	return fc, overrides, nil
}
