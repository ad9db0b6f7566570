package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/goliatone/go-tplbind/internal/cli"
)

func main() {
	templatePath := flag.String("template", "", "HTML document containing template elements")
	modelPath := flag.String("model", "", "JSON or YAML model document")
	scriptPath := flag.String("script", "", "JSON or YAML list of model operations to apply before rendering")
	layoutPath := flag.String("layout", "", "pongo2 layout wrapping the rendered body as {{ content|safe }} (\"default\" uses the built-in page layout)")
	output := flag.String("output", "", "output file (stdout if empty)")
	watch := flag.Bool("watch", false, "re-render whenever the model file changes")
	interactive := flag.Bool("interactive", false, "edit the model interactively and re-render after each change")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -template page.html -model data.yaml [flags]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		logger = dev
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := cli.New(cli.Config{
		TemplatePath: *templatePath,
		ModelPath:    *modelPath,
		ScriptPath:   *scriptPath,
		LayoutPath:   *layoutPath,
		OutputPath:   *output,
		Watch:        *watch,
		Interactive:  *interactive,
		Verbose:      *verbose,
	}, cli.WithLogger(logger))

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("tplbind: %v", err)
	}
}
