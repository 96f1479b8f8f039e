// Package main provides the actorconv CLI, which converts Onitama actor
// weights exported as JSON into an ONNX model.
//
// Usage:
//
//	actorconv [-config file.yaml] [-in weights.json] [-out model.onnx] [-opset 13] [-match position|name] [-quiet]
//	actorconv inspect model.onnx
//	actorconv version
//
// With no arguments it reads onitama_weights.json and writes
// onitama-actor.onnx in the current directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/born-ml/actorconv/internal/config"
	"github.com/born-ml/actorconv/internal/convert"
	"github.com/born-ml/actorconv/internal/onnx"
	"github.com/born-ml/actorconv/internal/weights"
)

const version = "v0.1.0"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Fprintf(stdout, "actorconv %s\n", version)
			return exitOK
		case "inspect":
			return inspect(args[1:], stdout, stderr)
		}
	}
	return convertCmd(ctx, args, stdout, stderr)
}

func convertCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("actorconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML settings file")
	in := fs.String("in", config.DefaultInput, "weights JSON file")
	out := fs.String("out", config.DefaultOutput, "ONNX output file")
	opset := fs.Int64("opset", onnx.DefaultOpset, "ONNX opset version")
	match := fs.String("match", string(weights.MatchPosition), "record matching: position or name")
	quiet := fs.Bool("quiet", false, "suppress progress messages")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}
	switch weights.MatchMode(*match) {
	case weights.MatchPosition, weights.MatchName:
	default:
		fmt.Fprintf(stderr, "invalid value %q for -match: use %s or %s\n", *match, weights.MatchPosition, weights.MatchName)
		return exitUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(stderr, errorStyle.Render("Error:"), err)
			return exitError
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input = *in
		case "out":
			cfg.Output = *out
		case "opset":
			cfg.Opset = *opset
		case "match":
			cfg.Match = weights.MatchMode(*match)
		}
	})

	logger := log.New(stdout, "", 0)
	if *quiet {
		logger = log.New(io.Discard, "", 0)
	}

	result, err := convert.New(cfg, version, logger).Run(ctx)
	if err != nil {
		report(stderr, cfg, err)
		return exitError
	}

	if !*quiet {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, successStyle.Render("Conversion complete!"))
		fmt.Fprintf(stdout, "%s %s\n", labelStyle.Render("Output:"), result.Output)
		fmt.Fprintf(stdout, "%s %x\n", labelStyle.Render("SHA-256:"), result.Checksum)
	}
	return exitOK
}

// report prints a diagnostic for a failed conversion.
func report(w io.Writer, cfg config.Config, err error) {
	var incompatible *onnx.IncompatibleError
	switch {
	case errors.Is(err, weights.ErrInputNotFound):
		fmt.Fprintln(w, errorStyle.Render("Error:"), fmt.Sprintf("cannot find '%s'.", cfg.Input))
		fmt.Fprintln(w, hintStyle.Render("Export the actor weights from the trainer and place the file here, or pass -in."))
	case errors.As(err, &incompatible):
		fmt.Fprintln(w, errorStyle.Render("Conversion failed!"))
		fmt.Fprintf(w, "%s %v\n", labelStyle.Render("Error message:"), err)
		fmt.Fprintln(w)
		fmt.Fprintln(w, hintStyle.Render("[Remedy]"), incompatible.Remedy)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, errorStyle.Render("Interrupted."), "No output was written.")
	default:
		fmt.Fprintln(w, errorStyle.Render("Error:"), err)
	}
}

func inspect(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: actorconv inspect <model.onnx>")
		return exitUsage
	}

	info, err := onnx.GetModelInfo(args[0])
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("Error:"), err)
		return exitError
	}

	rows := []struct{ label, value string }{
		{"File:", args[0]},
		{"Producer:", strings.TrimSpace(info.ProducerName + " " + info.ProducerVersion)},
		{"IR version:", fmt.Sprint(info.IRVersion)},
		{"Opset:", fmt.Sprint(info.OpsetVersion)},
		{"Inputs:", strings.Join(info.InputNames, ", ")},
		{"Outputs:", strings.Join(info.OutputNames, ", ")},
		{"Operators:", strings.Join(info.Operators, ", ")},
		{"Nodes:", fmt.Sprint(info.NodeCount)},
		{"Weights:", fmt.Sprintf("%d tensors, %d parameters, %d bytes", info.WeightCount, info.ParameterCount, info.WeightBytes)},
	}
	for _, r := range rows {
		fmt.Fprintf(stdout, "%s %s\n", labelStyle.Width(12).Render(r.label), r.value)
	}
	return exitOK
}
