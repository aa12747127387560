package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/core"
	"github.com/JonMunkholm/qrforge/internal/qr"
)

func parseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a CSV into batch records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := batch.Ingest(r)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), flags.output, res)
		},
	}
}

func validateCmd(flags *globalFlags) *cobra.Command {
	var (
		workers   int
		maxPixels int
		strict    bool
	)

	cmd := &cobra.Command{
		Use:   "validate ITEMS",
		Short: "Check that every image decodes to its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(cmd, args[0])
			if err != nil {
				return err
			}

			v := batch.Validator{Decoder: qr.Decoder{MaxPixels: maxPixels}, Workers: workers}
			records := v.ValidateBatch(items)
			if err := writeOutput(cmd.OutOrStdout(), flags.output, records); err != nil {
				return err
			}

			failed := 0
			for _, rec := range records {
				if !rec.Success {
					failed++
				}
			}
			if strict && failed > 0 {
				return fmt.Errorf("%d of %d items failed validation", failed, len(records))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel decoders (0: one per CPU)")
	cmd.Flags().IntVar(&maxPixels, "max-pixels", qr.DefaultMaxPixels, "Reject images with more pixels than this")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any item fails")
	return cmd
}

func packCmd(flags *globalFlags) *cobra.Command {
	var (
		out      string
		validate bool
		force    bool
		level    int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "pack ITEMS --out FILE",
		Short: "Write the item images into a zip archive",
		Long: `Write the item images into a zip archive, one PNG entry per item
named NNN_<label>.png. With --validate each image is also decoded and the
results are reported alongside the archive.

An existing output file is only replaced after confirmation (or --force).
Declining leaves the file untouched and reports a cancelled result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(cmd, args[0])
			if err != nil {
				return err
			}

			confirm := confirmOverwrite(cmd.InOrStdin(), cmd.ErrOrStderr())
			if force {
				confirm = func(string) bool { return true }
			}

			p := batch.Packager{
				Validator: batch.Validator{Workers: workers},
				Level:     level,
			}
			res, err := p.Package(items, validate, batch.FileDestination{Path: out, Confirm: confirm})
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			return writeOutput(cmd.OutOrStdout(), flags.output, res)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Archive path to write")
	cmd.Flags().BoolVar(&validate, "validate", false, "Decode each image before archiving it")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing archive without asking")
	cmd.Flags().IntVar(&level, "level", batch.DefaultCompressionLevel, "Deflate level (1-9)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel decoders for --validate")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// confirmOverwrite asks on errw and reads a yes/no answer from in. Anything
// but y or yes, including EOF, declines.
func confirmOverwrite(in io.Reader, errw io.Writer) batch.ConfirmFunc {
	return func(path string) bool {
		fmt.Fprintf(errw, "%s exists. Overwrite? [y/N] ", path)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func scanCmd(flags *globalFlags) *cobra.Command {
	var maxPixels int

	cmd := &cobra.Command{
		Use:   "scan IMAGE",
		Short: "Read the QR code in an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			raw, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				return err
			}

			res := core.ScanBytes(qr.Decoder{MaxPixels: maxPixels}, raw)
			if err := writeOutput(cmd.OutOrStdout(), flags.output, res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(*res.Error)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPixels, "max-pixels", qr.DefaultMaxPixels, "Reject images with more pixels than this")
	return cmd
}
