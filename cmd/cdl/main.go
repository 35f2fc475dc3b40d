// Command cdl is the thin command-line front-end over the CDL library:
// parse (pretty tree or JSON), validate with exit codes, catalog listings,
// and an interactive REPL for trying descriptions.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	cdl "github.com/gemmology-dev/cdl-parser"
)

const (
	appName     = "cdl"
	historyFile = ".cdl_history"
	promptMain  = "cdl> "
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	var debug bool
	var logger *zap.Logger = zap.NewNop()

	app := &cli.App{
		Name:    appName,
		Usage:   "parse and validate Crystal Description Language strings",
		Version: cdl.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "log pipeline diagnostics to stderr",
				Destination: &debug,
			},
		},
		Before: func(c *cli.Context) error {
			if debug {
				cfg := zap.NewDevelopmentConfig()
				l, err := cfg.Build()
				if err != nil {
					return err
				}
				logger = l
			}
			return nil
		},
		After: func(c *cli.Context) error {
			_ = logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "parse a CDL string and print the description tree",
				ArgsUsage: "<cdl>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print a canonical JSON serialization"},
				},
				Action: func(c *cli.Context) error {
					return cmdParse(c, logger)
				},
			},
			{
				Name:      "validate",
				Usage:     "check a CDL string; exit 0 when valid",
				ArgsUsage: "<cdl>",
				Action: func(c *cli.Context) error {
					return cmdValidate(c, logger)
				},
			},
			{
				Name:  "repl",
				Usage: "interactively parse CDL strings",
				Action: func(c *cli.Context) error {
					return cmdRepl()
				},
			},
			{
				Name:  "list",
				Usage: "dump catalog contents",
				Subcommands: []*cli.Command{
					{Name: "systems", Action: func(*cli.Context) error { return listSystems() }},
					{Name: "point-groups", Action: func(*cli.Context) error { return listPointGroups() }},
					{Name: "forms", Action: func(*cli.Context) error { return listForms() }},
					{Name: "twins", Action: func(*cli.Context) error { return listTwins() }},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s <cdl>", appName, c.Command.Name), 2)
	}
	return strings.Join(c.Args().Slice(), " "), nil
}

func cmdParse(c *cli.Context, logger *zap.Logger) error {
	src, err := requireArg(c)
	if err != nil {
		return err
	}

	started := time.Now()
	desc, perr := cdl.Parse(src)
	logger.Debug("parse finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("ok", perr == nil))
	if perr != nil {
		fmt.Fprintln(os.Stderr, red(cdl.WrapErrorWithSource(perr, src).Error()))
		return cli.Exit("", 1)
	}

	if c.Bool("json") {
		out, jerr := cdl.ToJSONIndent(desc)
		if jerr != nil {
			return jerr
		}
		fmt.Println(string(out))
		return nil
	}
	printTree(desc)
	return nil
}

func cmdValidate(c *cli.Context, logger *zap.Logger) error {
	src, err := requireArg(c)
	if err != nil {
		return err
	}
	ok, msg := cdl.Validate(src)
	logger.Debug("validate finished", zap.Bool("ok", ok), zap.String("reason", msg))
	if !ok {
		fmt.Printf("Invalid: %s\n", msg)
		return cli.Exit("", 1)
	}
	fmt.Println("Valid CDL string")
	return nil
}

// printTree renders a readable summary of the parsed description.
func printTree(desc cdl.Description) {
	switch d := desc.(type) {
	case *cdl.CrystallineDescription:
		fmt.Printf("system:      %s\n", d.System)
		fmt.Printf("point group: %s\n", d.PointGroup)
		for _, doc := range d.DocComments {
			fmt.Printf("doc:         %s\n", doc)
		}
		for _, def := range d.Definitions {
			fmt.Printf("definition:  %s\n", def.String())
		}
		fmt.Println("forms:")
		for _, n := range d.Forms {
			fmt.Printf("  %s\n", n.String())
		}
		for _, m := range d.Modifications {
			fmt.Printf("modification: %s\n", m.String())
		}
		if d.Twin != nil {
			fmt.Printf("twin:        %s\n", d.Twin.String())
		}
		if d.Phenomenon != nil {
			fmt.Printf("phenomenon:  %s\n", d.Phenomenon.String())
		}
	case *cdl.AmorphousDescription:
		fmt.Println("system:      amorphous")
		if d.Subtype != "" {
			fmt.Printf("subtype:     %s\n", d.Subtype)
		}
		fmt.Printf("shapes:      %s\n", strings.Join(d.Shapes, ", "))
		for _, f := range d.Features {
			fmt.Printf("feature:     %s\n", f.String())
		}
		if d.Phenomenon != nil {
			fmt.Printf("phenomenon:  %s\n", d.Phenomenon.String())
		}
	}
	fmt.Printf("canonical:   %s\n", desc.String())
}

// ----- repl -----

func cmdRepl() error {
	fmt.Printf("CDL %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.\n", cdl.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				return nil
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		desc, perr := cdl.Parse(line)
		if perr != nil {
			fmt.Fprintln(os.Stderr, red(cdl.WrapErrorWithSource(perr, line).Error()))
			continue
		}
		fmt.Println(green("valid"), blue(desc.String()))
		ln.AppendHistory(trimmed)
	}
}

// ----- catalog listings -----

func listSystems() error {
	for _, sys := range cdl.CrystalSystems() {
		fmt.Println(sys)
	}
	return nil
}

func listPointGroups() error {
	groups := cdl.PointGroups()
	systems := make([]string, 0, len(groups))
	for sys := range groups {
		systems = append(systems, sys)
	}
	sort.Strings(systems)
	for _, sys := range systems {
		fmt.Printf("%-13s %s (default %s)\n", sys,
			strings.Join(groups[sys], " "), cdl.DefaultPointGroup(sys))
	}
	return nil
}

func listForms() error {
	forms := cdl.NamedForms()
	names := make([]string, 0, len(forms))
	for name := range forms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s %s\n", name, forms[name].String())
	}
	return nil
}

func listTwins() error {
	for _, law := range cdl.TwinLaws() {
		fmt.Println(law)
	}
	return nil
}
