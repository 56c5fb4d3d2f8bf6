package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// command is a subcommand: its handler receives the arguments after the
// subcommand name.
type command struct {
	Name  string
	Usage string
	Run   func(program string, args []string) error
}

var commands = []command{
	{"tune", "grid-search pyxit parameters with leave-images-out cross validation", runTune},
	{"predict", "classify a polygon of an image with a saved model", runPredict},
	{"serve", "serve region predictions over MCP (JSON-RPC on stdin/stdout)", runServe},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-V", "version":
		fmt.Printf("region-tuner %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	}

	for _, c := range commands {
		if c.Name != os.Args[1] {
			continue
		}
		if err := c.Run("region-tuner "+c.Name, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "region-tuner %s: %v\n", c.Name, err)
			os.Exit(1)
		}
		return
	}

	usage()
	fmt.Fprintf(os.Stderr, "\nError: unknown command %s\n", os.Args[1])
	os.Exit(2)
}

func usage() {
	fmt.Println("region-tuner - hyperparameter search and region prediction for pyxit classifiers")
	fmt.Println()
	fmt.Println("Usage: region-tuner <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, c := range commands {
		fmt.Printf("  %-10s %s\n", c.Name, c.Usage)
	}
	fmt.Println("  version    print version information")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  REGION_TUNER_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("Use region-tuner <command> --help for the options of a command.")
}

// parseArgs parses args into dest. It reports handled as true when the
// user asked for help, which has then already been written.
func parseArgs(program string, args []string, dest interface{}) (handled bool, err error) {
	p, err := arg.NewParser(arg.Config{Program: program}, dest)
	if err != nil {
		return false, err
	}
	return handleParseError(p, p.Parse(args))
}

func handleParseError(p *arg.Parser, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case err == arg.ErrHelp && p != nil:
		p.WriteHelp(os.Stdout)
		return true, nil
	case p != nil:
		p.WriteUsage(os.Stderr)
	}
	return false, err
}
