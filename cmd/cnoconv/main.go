// Command cnoconv converts overlays between CNO, CNOB and GeoJSON.
//
//	cnoconv [-from fmt] [-to cno|cnob|geojson] [-proj def] in out
//
// in is a file path or an overlay name resolved like the server does,
// downloading catalog overlays when needed. out may be - for stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cnoview/internal/catalog"
	"cnoview/internal/cno"
	"cnoview/internal/geometry"
	"cnoview/internal/locator"
	"cnoview/internal/logger"
	"cnoview/internal/projection"
)

const formatGeoJSON = "geojson"

var errUsage = errors.New("expected input and output arguments")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cnoconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", "", "input format: cno, cnob or geojson (default: detect)")
	to := fs.String("to", "", "output format: cno, cnob or geojson (default: from the output extension)")
	proj := fs.String("proj", "", "proj4 definition applied to GeoJSON output")
	dataDir := fs.String("data", os.Getenv("CNO_DATA"), "overlay directory for names and downloads")
	baseURL := fs.String("base-url", "", "download catalog base URL")
	force := fs.Bool("force", false, "overwrite an existing output file")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage:
  cnoconv [flags] INPUT OUTPUT

INPUT is a path or an overlay name such as %s.
OUTPUT is a path or - for stdout.

`, catalog.DefaultOverlay)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	in, out := fs.Arg(0), fs.Arg(1)

	log, err := logger.NewConsole(*logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	outFormat, err := outputFormat(*to, out)
	if err != nil {
		return err
	}

	var p projection.Projection
	if *proj != "" {
		if outFormat != formatGeoJSON {
			return errors.New("-proj only applies to geojson output")
		}
		if p, err = projection.Parse(*proj); err != nil {
			return err
		}
	}

	var g *geometry.Geometry
	if strings.EqualFold(*from, formatGeoJSON) || (*from == "" && isGeoJSONPath(in)) {
		g, err = readGeoJSON(in)
	} else {
		g, err = readOverlay(ctx, in, *from, *dataDir, *baseURL, log)
	}
	if err != nil {
		return err
	}

	if g, err = projection.Project(g, p); err != nil {
		return err
	}

	w, commit, err := openOutput(out, stdout, *force)
	if err != nil {
		return err
	}
	if err := write(w, g, outFormat); err != nil {
		commit(false)
		return err
	}
	if err := commit(true); err != nil {
		return err
	}

	log.Info("Converted overlay",
		zap.String("input", in),
		zap.String("output", out),
		zap.String("format", outFormat),
		zap.Int("parts", g.NumParts()),
		zap.Int("points", g.NumPoints()))
	return nil
}

func readOverlay(ctx context.Context, in, from, dataDir, baseURL string, log *zap.Logger) (*geometry.Geometry, error) {
	cat, err := catalog.New(baseURL)
	if err != nil {
		return nil, err
	}
	loc := locator.New(locator.DataDir(dataDir, log), cat, log)

	src, err := loc.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if from != "" {
		if src.Format, err = cno.ParseFormat(from); err != nil {
			return nil, err
		}
	}
	return cno.DecodeFile(src.Path, src.Format)
}

// outputFormat picks the output encoding from -to or the output extension.
func outputFormat(to, out string) (string, error) {
	if to == "" {
		if isGeoJSONPath(out) {
			return formatGeoJSON, nil
		}
		if filepath.Ext(out) == "" {
			return "", fmt.Errorf("cannot infer the output format of %q, use -to", out)
		}
		to = filepath.Ext(out)
	}
	if strings.EqualFold(to, formatGeoJSON) {
		return formatGeoJSON, nil
	}
	f, err := cno.ParseFormat(to)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(f.Extension(), "."), nil
}

func write(w io.Writer, g *geometry.Geometry, format string) error {
	if format == formatGeoJSON {
		return writeGeoJSON(w, g)
	}

	f, err := cno.ParseFormat(format)
	if err != nil {
		return err
	}
	return cno.Encode(w, g, f)
}

// openOutput returns the output writer and a function that finishes it.
// Files are written next to the destination and renamed into place on
// success; an existing destination is kept unless force is set.
func openOutput(out string, stdout io.Writer, force bool) (io.Writer, func(ok bool) error, error) {
	if out == "-" {
		return stdout, func(bool) error { return nil }, nil
	}

	if _, err := os.Stat(out); err == nil && !force {
		return nil, nil, fmt.Errorf("%s exists; remove it or use -force", out)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), filepath.Base(out)+".*.tmp")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}

	commit := func(ok bool) error {
		if !ok {
			tmp.Close()
			os.Remove(tmp.Name())
			return nil
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := os.Rename(tmp.Name(), out); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to move output into place: %w", err)
		}
		return nil
	}
	return tmp, commit, nil
}

func isGeoJSONPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return true
	}
	return false
}
