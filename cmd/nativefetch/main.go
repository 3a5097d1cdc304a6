package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

type command struct {
	name  string
	usage string
	run   func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"fetch", "fetch [options]        Download, verify and extract manifest artifacts", runFetch},
	{"status", "status [options]       Show which artifacts are extracted and cached", runStatus},
	{"init", "init [options]         Write a starter manifest for this host", runInit},
	{"detect", "detect [options] <file> Print the archive format of a local file", runDetect},
	{"verify", "verify [options] <file> <sidecar>\n                           Check a local file against a checksum sidecar", runVerify},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stdout)
		return 0
	}

	switch args[0] {
	case "--version", "version":
		fmt.Fprintf(stdout, "nativefetch %s\n", Version)
		return 0
	case "--help", "-h", "help":
		printHelp(stdout)
		return 0
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(args[1:], stdout, stderr)
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "Error: unknown command: %s\n\n", args[0])
	printHelp(stderr)
	return 2
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "nativefetch - verified retrieval of native release archives")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  nativefetch --version             Show version information")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  nativefetch %s\n", cmd.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'nativefetch <command> -h' for command options.")
}
