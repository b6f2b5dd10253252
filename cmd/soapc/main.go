package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/camcima/camcima-soap-client"
	"github.com/camcima/camcima-soap-client/envelope"
	"github.com/camcima/camcima-soap-client/transport"
	"github.com/creachadair/command"
	"github.com/creachadair/flax"
)

var globalArgs struct {
	Config string `flag:"config,Path of the YAML client configuration"`
	Format string `flag:"format,default=json,Output format: json, go or xml"`
}

var envelopeArgs struct {
	Namespace string `flag:"namespace,Namespace of the operation element (overrides --config)"`
	Indent    bool   `flag:"indent,default=true,Indent the envelope"`
}

var callArgs struct {
	Raw bool `flag:"raw,Print the raw HTTP exchange instead of the response content"`
}

func main() {
	root := &command.C{
		Name:     "soapc",
		Usage:    "command args...",
		Help:     "Build, inspect and send SOAP messages.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "envelope",
				Usage: "envelope <request.json>",
				Help: `Wrap a JSON request tree in a SOAP envelope.

The request is a JSON object whose single key is the operation name.
Use "-" to read it from stdin.`,
				SetFlags: command.Flags(flax.MustBind, &envelopeArgs),
				Run:      command.Adapt(runEnvelope),
			},
			{
				Name:  "parse",
				Usage: "parse <response>",
				Help: `Decode a SOAP response envelope into a value tree.

The input may be a bare envelope or a raw HTTP response dump, in which
case the headers are skipped. Use "-" to read it from stdin.`,
				Run: command.Adapt(runParse),
			},
			{
				Name:     "call",
				Usage:    "call <action> <request.json>",
				Help:     "Send a JSON request tree to the endpoint named in --config.",
				SetFlags: command.Flags(flax.MustBind, &callArgs),
				Run:      command.Adapt(runCall),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func loadConfig() (*soap.Config, error) {
	if globalArgs.Config == "" {
		return &soap.Config{}, nil
	}
	return soap.LoadConfig(globalArgs.Config)
}

func runEnvelope(env *command.Env, path string) error {
	body, err := readRequest(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := envelope.EncodeOptions{Namespace: cfg.Namespace}
	if envelopeArgs.Namespace != "" {
		opts.Namespace = envelopeArgs.Namespace
	}
	if envelopeArgs.Indent {
		opts.Indent = "  "
	}
	bs, err := envelope.Encode(body, opts)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	fmt.Println(string(bs))
	return nil
}

func runParse(env *command.Env, path string) error {
	bs, err := readInput(path)
	if err != nil {
		return err
	}
	if status, ok := httpStatus(bs); ok {
		_, body := transport.SplitResponse(string(bs))
		bs = []byte(body)
		printStatus(status)
	}
	tree, err := envelope.Decode(bs)
	if err != nil {
		return reportFault(err)
	}
	return printValue(tree)
}

func runCall(env *command.Env, action, path string) error {
	body, err := readRequest(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Endpoint == "" {
		return errors.New("no endpoint configured, use --config")
	}
	client, err := soap.NewClient(cfg.ClientOptions())
	if err != nil {
		return err
	}

	resp, err := client.CallTree(env.Context(), action, body)
	if callArgs.Raw {
		fmt.Println(client.CommunicationLog())
	}
	if err != nil {
		return reportFault(err)
	}
	if callArgs.Raw {
		return nil
	}
	return printValue(resp)
}
