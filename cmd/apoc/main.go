package main

import (
	"flag"
	"fmt"
	"image/color"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bodgit/apoc"
	"github.com/bodgit/apoc/palette"
	"github.com/bodgit/apoc/pck"
	"github.com/bodgit/apoc/render"
	"github.com/bodgit/apoc/web"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"
)

const defaultDB = "apoc.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
		flag.Set("logtostderr", "true")
		flag.Set("v", "2")
	}
	return logger
}

func newLoader(c *cli.Context) *apoc.Loader {
	return apoc.NewLoader(apoc.LoaderOptions{
		Root:   c.String("root"),
		Decode: decodeOptions(c),
		Logger: newLogger(c),
	})
}

func decodeOptions(c *cli.Context) pck.Options {
	return pck.Options{
		Canvas: c.Int("canvas"),
		Shade:  uint8(c.Uint("shade")),
	}
}

func loadPalette(c *cli.Context) (color.Palette, error) {
	if c.String("palette") == "" {
		return palette.Greyscale(), nil
	}
	f, err := os.Open(c.String("palette"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return palette.Decode(f)
}

func renderOptions(c *cli.Context) *render.Options {
	return &render.Options{
		Scale:  c.Int("scale"),
		Crop:   c.Bool("crop"),
		Colors: c.Int("colors"),
	}
}

var renderFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "scale",
		Value: 1,
		Usage: "magnify by an integer factor",
	},
	&cli.BoolFlag{
		Name:  "crop",
		Usage: "trim sprites to their opaque pixels",
	},
}

func main() {
	app := cli.NewApp()

	app.Name = "apoc"
	app.Usage = "PCK sprite sheet and LOFTEMPS voxel slice utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	// glog registers its flags on the standard flag set.
	flag.CommandLine.Parse([]string{})

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			EnvVars: []string{"APOC_ROOT"},
			Value:   cwd,
			Usage:   "directory requests are relative to",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"APOC_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.StringFlag{
			Name:    "palette",
			EnvVars: []string{"APOC_PALETTE"},
			Usage:   "768 byte palette file, greyscale if unset",
		},
		&cli.UintFlag{
			Name:  "shade",
			Value: pck.DefaultShade,
			Usage: "palette index for shadow pixels",
		},
		&cli.IntFlag{
			Name:  "canvas",
			Value: pck.DefaultCanvas,
			Usage: "virtual screen width pixel offsets are relative to",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "info",
			Usage:       "Describe a decoded resource",
			Description: "REQUEST is one of PCK:, PCKLEGACY:, PCKV2:, PCKSTRAT:, PCKSHADOW: or LOFTEMPS: followed by data:index[:record], or RAW:data:width:height.",
			ArgsUsage:   "REQUEST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				v, err := newLoader(c).Load(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				describe(os.Stdout, v)

				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Export a sprite, sheet or slice as PNG or GIF",
			Description: "The output format is taken from the file extension. Whole sheets are laid out on a grid.",
			ArgsUsage:   "REQUEST FILE",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "colors",
					Value: 256,
					Usage: "maximum colours in GIF output",
				},
				&cli.IntFlag{
					Name:  "cols",
					Value: 16,
					Usage: "sprites per row when exporting a sheet",
				},
			}, renderFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := loadPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := export(newLoader(c), p, c.Args().Get(0), c.Args().Get(1), c.Int("cols"), renderOptions(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "show",
			Usage:       "Draw a sprite or slice in the terminal",
			Description: "",
			ArgsUsage:   "REQUEST",
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:  "dataurl",
					Usage: "print a PNG data URL instead of drawing",
				},
				&cli.BoolFlag{
					Name:  "ansi",
					Usage: "draw with colour escapes even if the terminal supports images",
				},
			}, renderFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := loadPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				img, err := resource(newLoader(c), p, c.Args().First(), 16, renderOptions(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				switch {
				case c.Bool("dataurl"):
					err = printDataURL(os.Stdout, img)
				case c.Bool("ansi"):
					printANSI(img)
				default:
					show(img)
				}
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "lof",
			Usage:       "Print LOFTEMPS slices as text",
			Description: "Without a record every slice of the set is printed.",
			ArgsUsage:   "DAT TAB [RECORD]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := printSlices(newLoader(c), c.Args().Slice()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Decode every sprite sheet under a directory into the catalog",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				ix, err := apoc.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer ix.Close()

				ix.SetOptions(decodeOptions(c))

				if err := ix.Scan(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "find",
			Usage:       "List every catalogued copy of a sprite",
			Description: "",
			ArgsUsage:   "REQUEST",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				ix, err := apoc.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer ix.Close()

				m, err := newLoader(c).Image(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if m == nil {
					return cli.NewExitError("blank sprite", 1)
				}

				sprites, err := ix.Catalog().FindByHash(apoc.Hash(m))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				for _, s := range sprites {
					fmt.Printf("%s:%d\n", s.Sheet, s.Index)
				}

				return nil
			},
		},
		{
			Name:        "serve",
			Usage:       "Serve previews over HTTP",
			Description: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "listen",
					EnvVars: []string{"APOC_LISTEN"},
					Value:   "localhost:8080",
					Usage:   "address to listen on",
				},
				&cli.IntFlag{
					Name:  "cache",
					Value: 64,
					Usage: "number of unpinned resources to keep decoded",
				},
			},
			Action: func(c *cli.Context) error {
				p, err := loadPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				l := apoc.NewLoader(apoc.LoaderOptions{
					Root:       c.String("root"),
					Decode:     decodeOptions(c),
					MaxEntries: c.Int("cache"),
					Logger:     newLogger(c),
				})

				r := mux.NewRouter()
				web.NewHandler(l, p).RegisterRoutes(r)

				log.Printf("Listening on %s", c.String("listen"))
				if err := http.ListenAndServe(c.String("listen"), handlers.LoggingHandler(os.Stdout, r)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
