// Command arith compresses and decompresses files with arithmetic coding.
//
//	arith compress -mode ppm -order 3 -o out.arith input.txt
//	arith decompress -mode ppm -order 3 -o restored.txt out.arith
//
// When the input argument or -o is omitted, stdin and stdout are used.
// The mode and, for PPM, the order must match between the two commands.
package main

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/refcodec/arith"
)

func newApp() *cli.App {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Value: "ppm",
				Usage: "coding mode: static, adaptive or ppm",
			},
			&cli.IntFlag{
				Name:  "order",
				Value: arith.DefaultPPMOrder,
				Usage: "PPM model order (ppm mode only)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file (default stdout)",
			},
		}
	}
	return &cli.App{
		Name:  "arith",
		Usage: "arithmetic coding compressor",
		Commands: []*cli.Command{
			{
				Name:      "compress",
				Usage:     "compress a file or stdin",
				ArgsUsage: "[file]",
				Flags:     flags(),
				Action: func(c *cli.Context) error {
					return transform(c, compressFunc)
				},
			},
			{
				Name:      "decompress",
				Usage:     "decompress a file or stdin",
				ArgsUsage: "[file]",
				Flags:     flags(),
				Action: func(c *cli.Context) error {
					return transform(c, decompressFunc)
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func compressFunc(mode string, order int) (func(io.Writer, io.Reader) error, error) {
	switch mode {
	case "static":
		return arith.CompressStatic, nil
	case "adaptive":
		return arith.CompressAdaptive, nil
	case "ppm":
		return func(dst io.Writer, src io.Reader) error {
			return arith.CompressPPM(dst, src, order)
		}, nil
	}
	return nil, errors.Errorf("unknown mode %q", mode)
}

func decompressFunc(mode string, order int) (func(io.Writer, io.Reader) error, error) {
	switch mode {
	case "static":
		return arith.DecompressStatic, nil
	case "adaptive":
		return arith.DecompressAdaptive, nil
	case "ppm":
		return func(dst io.Writer, src io.Reader) error {
			return arith.DecompressPPM(dst, src, order)
		}, nil
	}
	return nil, errors.Errorf("unknown mode %q", mode)
}

func transform(c *cli.Context, pick func(string, int) (func(io.Writer, io.Reader) error, error)) error {
	fn, err := pick(c.String("mode"), c.Int("order"))
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if name := c.Args().First(); name != "" {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if name := c.String("output"); name != "" {
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		defer f.Close()
		out = f
	}

	return fn(out, in)
}
