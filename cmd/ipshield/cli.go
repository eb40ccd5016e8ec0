package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "verify":
		return runVerify(args[2:])
	case "protect":
		return runProtect(args[2:])
	case "license":
		return runLicense(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "ipshield"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(stderr, "usage:\n")
	fmt.Fprintf(stderr, "  %s verify --url <content-url> --type <image|audio|video|text> [--title <title>] [--creator <id>]\n", name)
	fmt.Fprintf(stderr, "  %s protect --url <media-url> --type <type> [--title <title>] [--id <item-id>] [--license <type>] [--royalty <0-100>]\n", name)
	fmt.Fprintf(stderr, "  %s license --type <COMMERCIAL_USE|NON_COMMERCIAL|NO_DERIVATIVES> [--royalty <0-100>]\n", name)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
