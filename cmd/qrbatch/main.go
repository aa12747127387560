// Command qrbatch runs the batch pipeline from the command line: ingest a
// CSV, validate rendered images, package them into a zip, or scan a single
// image.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/logging"
)

const appName = "qrbatch"

// Version is set at build time.
var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	output   string
	logLevel string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Validate and package batches of QR codes",
		Long: `qrbatch works on batches of QR codes outside the server.

  parse     read a CSV and print the records it yields
  validate  decode every rendered image and compare it with its content
  pack      write the rendered images into a zip archive
  scan      read the code in a single image file

Items files are JSON or YAML lists of {row, content, label, imageData}.
Use "-" to read from stdin.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.output {
			case "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (want json or yaml)", flags.output)
			}
			logging.SetupWriter(cmd.ErrOrStderr(), flags.logLevel, "text")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "json", "Output format (json, yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		parseCmd(flags),
		validateCmd(flags),
		packCmd(flags),
		scanCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// writeOutput renders v to w in the selected format.
func writeOutput(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// readItems loads an items file. YAML is chosen by extension; anything else
// is parsed as JSON. Both a bare list and {"items": [...]} are accepted.
func readItems(cmd *cobra.Command, path string) ([]batch.Item, error) {
	r, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var wrapped struct {
		Items []batch.Item `json:"items" yaml:"items"`
	}
	var items []batch.Item

	unmarshal := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		unmarshal = yaml.Unmarshal
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-") {
		err = unmarshal(data, &items)
	} else {
		err = unmarshal(data, &wrapped)
		items = wrapped.Items
	}
	if err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	return items, nil
}
