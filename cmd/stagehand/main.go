package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"stagehand/internal/config"
	"stagehand/internal/generate"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "version":
		fmt.Printf("stagehand %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: stagehand <command> [options]

commands:
  generate   regenerate the pipeline from stagehand.yaml
  watch      regenerate whenever the configuration changes
  version    print the version

generate/watch options:
  -config    configuration file (default stagehand.yaml)
  -output    pipeline file (default .github/workflows/pipeline.yml)
  -force     regenerate even when the stored marker matches`)
}

func commonFlags(fs *flag.FlagSet) *generate.Options {
	opts := &generate.Options{}
	fs.StringVar(&opts.ConfigPath, "config", config.DefaultFileName, "configuration file")
	fs.StringVar(&opts.OutputPath, "output", generate.DefaultOutputPath, "pipeline file")
	fs.BoolVar(&opts.Force, "force", false, "regenerate even when the stored marker matches")
	return opts
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	opts := commonFlags(fs)
	_ = fs.Parse(args)
	opts.Logger = log.New(os.Stderr, "stagehand: ", 0)

	status, err := generate.New(*opts).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagehand: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", status)
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts := commonFlags(fs)
	_ = fs.Parse(args)
	logger := log.New(os.Stderr, "stagehand: ", log.LstdFlags)
	opts.Logger = logger

	gen := generate.New(*opts)
	if _, err := gen.Run(); err != nil {
		logger.Printf("initial generation: %v", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Fatalf("create watcher: %v", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace config files by
	// rename, which drops a file-level watch.
	cfgDir := filepath.Dir(opts.ConfigPath)
	if cfgDir == "" {
		cfgDir = "."
	}
	if err := watcher.Add(cfgDir); err != nil {
		logger.Fatalf("watch %s: %v", cfgDir, err)
	}
	logger.Printf("watching %s", opts.ConfigPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	cfgName := filepath.Base(opts.ConfigPath)
	for {
		select {
		case <-sig:
			logger.Printf("shutting down")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != cfgName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			status, err := gen.Run()
			if err != nil {
				logger.Printf("regenerate: %v", err)
				continue
			}
			logger.Printf("regenerate: %s", status)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Printf("watcher error: %v", err)
		}
	}
}
