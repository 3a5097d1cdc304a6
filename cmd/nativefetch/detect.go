package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/archive"
)

// runDetect handles the `nativefetch detect` subcommand
func runDetect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	list := fs.Bool("list", false, "decode the archive and list its entries")
	verbosity := fs.Int("v", 0, "log verbosity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: nativefetch detect [options] <file>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	format, err := archive.Detect(f)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, format)

	if !*list {
		return nil
	}

	c, err := archive.Open(f, archive.WithLogger(newLogger(stderr, *verbosity)))
	if err != nil {
		return err
	}
	defer c.Release()

	for i, e := range c.Entries() {
		if e.IsLink() {
			fmt.Fprintf(stdout, "  %s -> %s\n", e.Key, c.Resolved(i))
			continue
		}
		fmt.Fprintf(stdout, "  %s\n", e.Key)
	}
	for _, w := range c.Warnings() {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	return nil
}
