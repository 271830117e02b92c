// Command maillist cleans email lists from the command line.
//
// Usage:
//
//	maillist [flags] -in contacts.csv[,more.xlsx] -out clean.xlsx
//	maillist [flags] -out clean.csv contacts.csv more.xlsx
//
// Files are processed in order and accumulate into one list, as successive
// uploads do in the web app.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/maillist/internal/config"
	"github.com/JonMunkholm/maillist/internal/core"
	"github.com/JonMunkholm/maillist/internal/logging"
)

type options struct {
	inputs      []string
	out         string
	format      string
	defaults    string
	maxFileSize int64
	processing  core.ProcessingOptions
	logLevel    string
	logFormat   string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Setup(opts.logLevel, opts.logFormat)

	if err := run(opts); err != nil {
		ue := core.NewUserError(err)
		slog.Error("maillist failed", "error", ue.Technical, "code", ue.User.Code)
		fmt.Fprintln(os.Stderr, ue.Detail())
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("maillist", flag.ContinueOnError)

	var (
		in   string
		opts options
	)
	fs.StringVar(&in, "in", "", "comma-separated input files (.csv or .xlsx)")
	fs.StringVar(&opts.out, "out", "", "output file; its extension picks the format unless -format is set")
	fs.StringVar(&opts.format, "format", "", "output format: xlsx or csv")
	fs.StringVar(&opts.defaults, "defaults", "", "YAML file with processing defaults")
	fs.Int64Var(&opts.maxFileSize, "max-size", core.DefaultMaxFileSize, "maximum input file size in bytes")
	fs.BoolVar(&opts.processing.RemoveDuplicates, "dedupe", true, "remove duplicate addresses")
	fs.BoolVar(&opts.processing.RemoveInvalid, "remove-invalid", true, "remove malformed addresses")
	fs.BoolVar(&opts.processing.SortAlphabetically, "sort", true, "sort addresses alphabetically")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, p := range strings.Split(in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.inputs = append(opts.inputs, p)
		}
	}
	opts.inputs = append(opts.inputs, fs.Args()...)

	if len(opts.inputs) == 0 {
		return nil, errors.New("no input file: use -in or pass files as arguments")
	}
	if opts.out == "" {
		return nil, errors.New("-out is required")
	}

	if opts.defaults != "" {
		// Flags set explicitly win over the file.
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		p := config.ProcessingConfig{
			RemoveDuplicates:   opts.processing.RemoveDuplicates,
			RemoveInvalid:      opts.processing.RemoveInvalid,
			SortAlphabetically: opts.processing.SortAlphabetically,
		}
		if err := config.LoadProcessingDefaults(opts.defaults, &p); err != nil {
			return nil, err
		}
		if !set["dedupe"] {
			opts.processing.RemoveDuplicates = p.RemoveDuplicates
		}
		if !set["remove-invalid"] {
			opts.processing.RemoveInvalid = p.RemoveInvalid
		}
		if !set["sort"] {
			opts.processing.SortAlphabetically = p.SortAlphabetically
		}
	}
	return &opts, nil
}

// outputFormat resolves -format, falling back to the output extension.
func outputFormat(format, out string) (core.ExportFormat, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(out), ".")
	}
	return core.ParseExportFormat(format)
}

func run(opts *options) error {
	format, err := outputFormat(opts.format, opts.out)
	if err != nil {
		return err
	}

	var working []core.EmailRecord
	for _, path := range opts.inputs {
		records, err := processFile(path, opts, working)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		working = records
	}

	data, err := core.Export(format, working)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		return err
	}

	slog.Info("list written", "file", opts.out, "format", format, "records", len(working), "bytes", len(data))
	return nil
}

// processFile runs one input against the working set and returns the new
// working set.
func processFile(path string, opts *options, working []core.EmailRecord) ([]core.EmailRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := core.ParseFile(filepath.Base(path), f, opts.maxFileSize)
	if err != nil {
		return nil, err
	}

	col, err := core.FindEmailColumn(table[0])
	if err != nil {
		return nil, err
	}
	if col < 0 {
		return nil, core.ErrNoEmailColumn
	}

	out, err := core.ProcessEmails(table, col, opts.processing, working)
	if err != nil {
		return nil, err
	}

	slog.Info("file processed",
		"file", path,
		"total", out.Stats.TotalEmails,
		"invalid", out.Stats.InvalidEmails,
		"duplicates_removed", out.Stats.DuplicatesRemoved,
		"merge_dropped", out.MergeDropped,
		"kept", len(out.Records),
	)
	return core.AccumulateRecords(working, out.Records), nil
}
