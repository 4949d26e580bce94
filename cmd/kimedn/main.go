// kimedn - validate and pretty-print KIM-EDN
//
// Usage:
//
//	kimedn [flags] [infile [outfile]]
//
// Reads infile (default: stdin), checks that it is valid KIM-EDN and writes
// it back pretty-printed to outfile (default: stdout). Each document is
// followed by a blank line. outfile may name infile; it is replaced
// atomically.
//
//	echo '{"foo": ["bar", "baz"]}' | kimedn
//	{
//	    "foo" [
//	        "bar"
//	        "baz"
//	    ]
//	}
//
// Invalid input prints the error and exits with status 1:
//
//	echo '{1.2 3.4}' | kimedn
//	Expecting property name enclosed in double quotes: line 1 column 2 (char 1)
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/renameio/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/Neumenon/kimedn/kimedn"
	"github.com/Neumenon/kimedn/stream"
)

const libVersion = "1.0.0"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	sortKeys bool
	ednLines bool
	indent   int
	tab      bool
	noIndent bool
	compact  bool
	toJSON   bool
	fromJSON bool
	verbose  bool
	version  bool
	help     bool

	infile  string
	outfile string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flagSet := pflag.NewFlagSet("kimedn", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)

	var opts options
	flagSet.BoolVar(&opts.sortKeys, "sort-keys", false, "sort the output of maps by key")
	flagSet.BoolVar(&opts.ednLines, "edn-lines", false, "parse input as one document per line")
	flagSet.IntVar(&opts.indent, "indent", 4, "separate items with newlines and use this number of spaces for indentation")
	flagSet.BoolVar(&opts.tab, "tab", false, "separate items with newlines and use tabs for indentation")
	flagSet.BoolVar(&opts.noIndent, "no-indent", false, "separate items with spaces rather than newlines")
	flagSet.BoolVar(&opts.compact, "compact", false, "suppress all whitespace separation (most compact)")
	flagSet.BoolVar(&opts.toJSON, "to-json", false, "write JSON instead of KIM-EDN")
	flagSet.BoolVar(&opts.fromJSON, "from-json", false, "read JSON instead of KIM-EDN")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return exitOK
		}
		return exitUsage
	}
	if opts.help {
		printHelp(stdout, flagSet)
		return exitOK
	}
	if opts.version {
		fmt.Fprintf(stdout, "kimedn %s\n", libVersion)
		return exitOK
	}
	if err := opts.validate(flagSet); err != nil {
		fmt.Fprintf(stderr, "kimedn: %v\n", err)
		return exitUsage
	}

	logger := newLogger(stderr, opts.verbose)
	if err := convert(opts, stdin, stdout, logger); err != nil {
		level.Debug(logger).Log("msg", "conversion failed", "err", err)
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return exitOK
}

func (o *options) validate(flagSet *pflag.FlagSet) error {
	layout := 0
	for _, name := range []string{"indent", "tab", "no-indent", "compact"} {
		if flagSet.Changed(name) {
			layout++
		}
	}
	if layout > 1 {
		return errors.New("--indent, --tab, --no-indent and --compact are mutually exclusive")
	}
	if o.ednLines && o.fromJSON {
		return errors.New("--edn-lines cannot be combined with --from-json")
	}

	args := flagSet.Args()
	if len(args) > 2 {
		return fmt.Errorf("unexpected argument: %s", args[2])
	}
	o.infile = "-"
	if len(args) > 0 {
		o.infile = args[0]
	}
	if len(args) > 1 {
		o.outfile = args[1]
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowWarn())
}

func (o *options) encoder() *kimedn.Encoder {
	encOpts := []kimedn.EncoderOption{kimedn.WithSortKeys(o.sortKeys)}
	switch {
	case o.noIndent, o.compact:
		// Whitespace is the only separator, so both forms are one line.
	case o.tab:
		encOpts = append(encOpts, kimedn.WithIndentString("\t"))
	default:
		encOpts = append(encOpts, kimedn.WithIndent(o.indent))
	}
	return kimedn.NewEncoder(encOpts...)
}

func (o *options) jsonIndent() int {
	if o.noIndent || o.compact {
		return 0
	}
	if o.tab {
		return 1
	}
	return o.indent
}

func convert(opts options, stdin io.Reader, stdout io.Writer, logger log.Logger) error {
	data, err := readInput(opts.infile, stdin)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "read input", "file", opts.infile, "size", humanize.Bytes(uint64(len(data))))

	docs, err := decodeDocs(opts, data)
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "decoded", "documents", len(docs))

	var out bytes.Buffer
	if opts.toJSON {
		for _, doc := range docs {
			b, err := kimedn.ToJSON(doc, opts.jsonIndent())
			if err != nil {
				return err
			}
			out.Write(b)
			out.WriteString("\n")
		}
	} else {
		w := stream.NewWriter(&out, stream.WithEncoder(opts.encoder()), stream.WithSeparator("\n\n"))
		for _, doc := range docs {
			if err := w.WriteDoc(doc); err != nil {
				return err
			}
		}
	}

	if opts.outfile == "" {
		if _, err := stdout.Write(out.Bytes()); err != nil {
			return pkgerrors.Wrap(err, "write output")
		}
		return nil
	}
	if err := renameio.WriteFile(opts.outfile, out.Bytes(), 0o644); err != nil {
		return pkgerrors.Wrapf(err, "write %s", opts.outfile)
	}
	level.Debug(logger).Log("msg", "wrote output", "file", opts.outfile, "size", humanize.Bytes(uint64(out.Len())))
	return nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		return data, pkgerrors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(name)
	return data, pkgerrors.Wrapf(err, "read %s", name)
}

func decodeDocs(opts options, data []byte) ([]any, error) {
	switch {
	case opts.fromJSON:
		v, err := kimedn.FromJSON(data)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	case opts.ednLines:
		return stream.NewReader(bytes.NewReader(data)).ReadAll()
	default:
		v, err := kimedn.DecodeBytes(data)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `usage: kimedn [flags] [infile [outfile]]

Validate and pretty-print KIM-EDN documents.

  infile    a KIM-EDN file to be validated or pretty-printed (default: stdin)
  outfile   write the output of infile to outfile (default: stdout)

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
