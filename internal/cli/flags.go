package cli

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/croplabs/picstore/internal/flagx"
)

// remainingArgs holds the positional arguments (command and its operands)
// left after flag parsing.
var remainingArgs []string

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the picstore server
//	-t string   bearer token
//	-o int      request timeout, seconds
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerURL, "a", config.ServerURL, "server base URL")
	fs.StringVar(&config.Token, "t", config.Token, "bearer token")
	timeout := fs.Int("o", int(config.Timeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.Timeout = time.Duration(*timeout) * time.Second
	remainingArgs = positionalArgs(os.Args[1:])
}

// positionalArgs strips every known flag (and its value) from args.
func positionalArgs(args []string) []string {
	flagsWithValue := map[string]bool{
		"-a": true, "-t": true, "-o": true, "-c": true, "-config": true,
	}

	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			continue
		}
		if flagsWithValue[arg] {
			i++
			continue
		}
		out = append(out, arg)
	}
	return out
}

// Args returns the positional arguments collected during LoadConfig.
func Args() []string {
	return remainingArgs
}
