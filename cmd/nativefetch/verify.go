package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/integrity"
)

// runVerify handles the `nativefetch verify` subcommand
func runVerify(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sigPath := fs.String("sig", "", "detached OpenPGP signature `file`")
	keyringPath := fs.String("keyring", "", "OpenPGP public keyring `file` (required with -sig)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: nativefetch verify [options] <file> <sidecar>")
	}
	if (*sigPath == "") != (*keyringPath == "") {
		return fmt.Errorf("-sig and -keyring must be used together")
	}

	sidecar, err := os.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	expected, err := integrity.ParseSidecar(sidecar)
	sidecar.Close()
	if err != nil {
		return err
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := integrity.Verify(f, expected); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ %s: checksum OK\n", fs.Arg(0))

	if *sigPath == "" {
		return nil
	}

	keyring, err := integrity.LoadKeyring(*keyringPath)
	if err != nil {
		return err
	}
	signature, err := os.ReadFile(*sigPath)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	signer, err := integrity.CheckSignature(f, signature, keyring)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ %s: signed by %s\n", fs.Arg(0), signer)
	return nil
}
