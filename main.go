// Command bfvm lexes, optimises, and either runs or re-emits a program
// written in the eight-symbol tape language implemented by package vm.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"bfvm/vm"
)

// config collects everything the vm package needs out of the CLI, the
// way the teacher assembles its flags before constructing a VM.
type config struct {
	inputPath    string
	outputPath   string
	emitBytecode bool
	optimise     vm.Optimisations
}

func newConfig(c *cli.Context) (*config, error) {
	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing required argument: file")
	}

	var names []string
	if raw := c.String("optimise"); raw != "" {
		names = strings.Split(raw, ",")
	}

	return &config{
		inputPath:    c.Args().First(),
		outputPath:   c.String("output"),
		emitBytecode: c.Bool("emit-bytecode"),
		optimise:     vm.ParseOptimisations(names),
	}, nil
}

func run(cfg *config) error {
	source, err := os.ReadFile(cfg.inputPath)
	if err != nil {
		return err
	}

	var unlinked vm.UnlinkedProgram
	switch ext := filepath.Ext(cfg.inputPath); ext {
	case ".bf":
		unlinked = vm.Lower(source)
	case ".bfc":
		decoded, err := vm.Decode(source)
		if err != nil {
			return err
		}
		unlinked = vm.UnlinkedProgram(decoded)
	default:
		return fmt.Errorf("unrecognised file extension %q (expected .bf or .bfc)", ext)
	}

	linked, err := vm.Optimise(unlinked, cfg.optimise)
	if err != nil {
		return err
	}

	if cfg.emitBytecode {
		return writeBytecode(cfg, linked)
	}

	interp := vm.NewInterpreter(linked, os.Stdin, os.Stdout)
	return interp.Run()
}

func writeBytecode(cfg *config, linked vm.LinkedProgram) error {
	outputPath := cfg.outputPath
	if outputPath == "" {
		ext := filepath.Ext(cfg.inputPath)
		outputPath = strings.TrimSuffix(cfg.inputPath, ext) + ".bfc"
	}

	return os.WriteFile(outputPath, vm.Encode(linked), 0o644)
}

func main() {
	app := cli.NewApp()
	app.Name = "bfvm"
	app.Usage = "compile, optimise and run programs in an eight-symbol tape language"
	app.ArgsUsage = "file"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "emit-bytecode, b",
			Usage: "emit bytecode instead of running the file",
		},
		cli.StringFlag{
			Name:  "output, p",
			Usage: "the file to write the bytecode to",
		},
		cli.StringFlag{
			Name:  "optimise, o",
			Usage: "comma-delimited optimisations: all, combine-clears, group-instructions, reorder-instructions, combine-multiply-loops",
		},
	}
	app.Action = func(c *cli.Context) error {
		cfg, err := newConfig(c)
		if err != nil {
			cli.ShowAppHelp(c)
			return cli.NewExitError(err.Error(), 1)
		}
		if err := run(cfg); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
