// Command l2bin bins L2 ocean-color granules into an L3 ISIN-grid
// container, following the SeaDAS l2bin CLI surface: either
// `l2bin run parfile=<path>` (or `--parfile <path>`) or a list of
// positional key=value tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/urfave/cli/v2"

	"github.com/oceancolor/l2bin"
	"github.com/oceancolor/l2bin/config"
	"github.com/oceancolor/l2bin/dataday"
	"github.com/oceancolor/l2bin/granule"
	"github.com/oceancolor/l2bin/output"
	"github.com/oceancolor/l2bin/search"
)

func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	pf := cCtx.String("parfile")
	for _, a := range cCtx.Args().Slice() {
		if pf == "" && strings.HasPrefix(a, "parfile=") {
			pf = strings.TrimPrefix(a, "parfile=")
		}
	}
	if pf != "" {
		f, err := os.Open(pf)
		if err != nil {
			return nil, fmt.Errorf("opening parfile %s: %w", pf, err)
		}
		defer f.Close()
		return config.ParseParfile(f)
	}
	if cCtx.Args().Len() > 0 {
		return config.ParseTokens(cCtx.Args().Slice())
	}
	return nil, fmt.Errorf("no parfile= or positional key=value arguments given")
}

func run(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		log.Printf("usage: l2bin run parfile=<path> | infile=,ofile=,sday=,eday=,resolve=,sensor=[,...]")
		return cli.Exit(err, 1)
	}

	tdbConfigURI := cCtx.String("tiledb-config")
	var tdbConfig *tiledb.Config
	if tdbConfigURI == "" {
		tdbConfig, err = tiledb.NewConfig()
	} else {
		tdbConfig, err = tiledb.LoadConfig(tdbConfigURI)
	}
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := &l2bin.Engine{
		Config: cfg,
		OpenGranule: func(path string) (granule.Reader, error) {
			r, err := granule.NewFileReader(path, dataday.Sensor(cfg.Sensor), tdbConfig)
			return r, err
		},
		OpenContainer: func(nrows int, totalBins int64, qualityConfigured bool) (output.Container, error) {
			tctx, err := tiledb.NewContext(tdbConfig)
			if err != nil {
				return nil, err
			}
			return output.NewTileDBContainer(tctx, cfg.OutFile, nrows, totalBins, qualityConfigured)
		},
	}

	err = engine.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, l2bin.ErrNoOutput):
		log.Println("no output produced")
		return cli.Exit(err, 110)
	case errors.Is(err, l2bin.ErrConfiguration):
		return cli.Exit(err, 1)
	case errors.Is(err, l2bin.ErrSemantic):
		return cli.Exit(err, -1)
	default:
		return cli.Exit(err, -1)
	}
}

func trawl(cCtx *cli.Context) error {
	uri := cCtx.String("uri")
	pattern := cCtx.String("pattern")
	configURI := cCtx.String("tiledb-config")

	items, err := search.FindGranules(uri, pattern, configURI)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Println(strings.Join(items, "\n"))
	return nil
}

func main() {
	app := &cli.App{
		Name:  "l2bin",
		Usage: "bin L2 ocean-color granules into an L3 ISIN-grid container",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run a binning pass: l2bin run parfile=<path> | infile=...,ofile=...,...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "parfile", Usage: "path to a SeaDAS-style parameter file"},
					&cli.StringFlag{Name: "tiledb-config", Usage: "path to a TileDB config file"},
				},
				Action: run,
			},
			{
				Name:  "trawl",
				Usage: "recursively list candidate granule files under a URI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname to search"},
					&cli.StringFlag{Name: "pattern", Usage: "basename glob pattern (default *.L2)"},
					&cli.StringFlag{Name: "tiledb-config", Usage: "path to a TileDB config file"},
				},
				Action: trawl,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
