package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yath/kcextract/internal/kernelcache"
	"github.com/yath/kcextract/internal/symbols"
)

type extractOptions struct {
	input   string
	output  string
	kpp     string
	symbols bool
}

func addFlags(fs *pflag.FlagSet, o *extractOptions) {
	fs.StringVarP(&o.input, "input", "i", "", "compressed kernelcache")
	fs.StringVarP(&o.output, "output", "o", "", "output file for the decompressed kernelcache")
	fs.StringVarP(&o.kpp, "kpp", "k", "", "output file for the KPP image, if present")
	fs.BoolVarP(&o.symbols, "symbols", "s", false, "print the number of symbols in the kernelcache")
}

func newRootCmd() *cobra.Command {
	o := &extractOptions{}

	cmd := &cobra.Command{
		Use:           "kcextract -i INPUT -o OUTPUT [-k KPP] [-s]",
		Short:         "Extract a decrypted 64-bit kernelcache",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout(), o)
		},
	}

	addFlags(cmd.Flags(), o)
	cmd.MarkFlagRequired("input")  //nolint:errcheck
	cmd.MarkFlagRequired("output") //nolint:errcheck

	// glog registers -v, -logtostderr and friends on the standard flag set
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	return cmd
}

func runExtract(w io.Writer, o *extractOptions) error {
	outputs := []string{o.output}
	if o.kpp != "" {
		if filepath.Clean(o.kpp) == filepath.Clean(o.output) {
			return fmt.Errorf("kernelcache and kpp output are both %s", o.output)
		}
		outputs = append(outputs, o.kpp)
	}
	for _, p := range outputs {
		if err := refuseExisting(p); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(o.input)
	if err != nil {
		return fmt.Errorf("can't read input: %w", err)
	}
	glog.Infof("Read %s from %s", humanize.Bytes(uint64(len(data))), o.input)

	res, err := kernelcache.Extract(data)
	if err != nil {
		return fmt.Errorf("can't extract kernelcache from %s: %w", o.input, err)
	}
	if res.Header != nil {
		fmt.Fprintf(w, "%s %v\n", res.Kind, res.Header)
	}

	if err := writeOutput(w, o.output, "kernelcache", res.Kernelcache); err != nil {
		return err
	}

	switch {
	case o.kpp == "":
	case res.KPPPresent:
		if err := writeOutput(w, o.kpp, "kpp", res.KPP); err != nil {
			return err
		}
	default:
		fmt.Fprintln(w, color.YellowString("no kpp found in %s", o.input))
	}

	if o.symbols {
		n, err := symbols.Count(res.Kernelcache)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "kernelcache has %d symbols\n", n)
	}

	return nil
}

func refuseExisting(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("can't stat %s: %w", path, err)
	}
	return nil
}

func writeOutput(w io.Writer, path, what string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("can't create %s output file: %w", what, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("can't write %s to %s: %w", what, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("can't close output file %v: %w", path, err)
	}

	fmt.Fprintf(w, "%s wrote %s to %s (%s, xxh64 %016x)\n",
		color.GreenString("ok"), what, path, humanize.Bytes(uint64(len(data))), xxhash.Sum64(data))
	return nil
}
