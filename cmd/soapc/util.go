package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/camcima/camcima-soap-client/envelope"
	"github.com/camcima/camcima-soap-client/wire"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
)

var (
	errColor    = color.New(color.FgRed, color.Bold)
	statusColor = color.New(color.FgCyan)
)

func init() {
	// Colour only when a person is watching.
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// readRequest reads a JSON request tree. The top-level value must be
// an object.
func readRequest(path string) (wire.Mapping, error) {
	bs, err := readInput(path)
	if err != nil {
		return nil, err
	}
	v, err := wire.ParseJSON(bs)
	if err != nil {
		return nil, fmt.Errorf("parsing request %s: %w", path, err)
	}
	m, ok := v.(wire.Mapping)
	if !ok {
		return nil, fmt.Errorf("request %s is a %s, want a JSON object", path, wire.KindOf(v))
	}
	return m, nil
}

// httpStatus reports whether bs looks like a raw HTTP response, and
// if so returns its status line.
func httpStatus(bs []byte) (string, bool) {
	if !bytes.HasPrefix(bs, []byte("HTTP/")) {
		return "", false
	}
	line, _, _ := strings.Cut(string(bs), "\n")
	return strings.TrimSpace(line), true
}

func printStatus(status string) {
	statusColor.Fprintln(os.Stderr, status)
}

// reportFault prints a SOAP fault in full before returning it.
func reportFault(err error) error {
	var fault *envelope.Fault
	if !errors.As(err, &fault) {
		return err
	}
	errColor.Fprintf(os.Stderr, "fault %s: ", fault.Code)
	fmt.Fprintln(os.Stderr, fault.String)
	if fault.Actor != "" {
		fmt.Fprintf(os.Stderr, "  actor: %s\n", fault.Actor)
	}
	if fault.Detail != nil {
		fmt.Fprintf(os.Stderr, "  detail: %s\n", wire.String(fault.Detail))
	}
	return err
}

func printValue(v wire.Mapping) error {
	switch globalArgs.Format {
	case "json":
		bs, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(bs))
	case "go":
		fmt.Printf("%# v\n", pretty.Formatter(v))
	case "xml":
		bs, err := envelope.Encode(v, envelope.EncodeOptions{Indent: "  "})
		if err != nil {
			return err
		}
		fmt.Println(string(bs))
	default:
		return fmt.Errorf("unknown output format %q", globalArgs.Format)
	}
	return nil
}
