// Command scpidemo runs an interactive SCPI session against a simulated
// source/measure instrument.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ergochat/readline"
	"github.com/rs/zerolog"

	"github.com/dshills/scpi"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		metricsAddr string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to TOML configuration file (shorthand)")
	flag.StringVar(&metricsAddr, "metrics", "", "Prometheus listen address (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("scpidemo %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if metricsAddr != "" {
		cfg.MetricsListen = metricsAddr
	}
	if cfg.Identity.Firmware == "dev" {
		cfg.Identity.Firmware = version
	}

	logger := newLogger(cfg.LogLevel)

	tree, err := buildTree()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid command set: %v\n", err)
		return 1
	}

	metrics := scpi.NewMetrics()
	interp := scpi.New(tree,
		scpi.WithLimits(cfg.Limits),
		scpi.WithIdentity(cfg.Identity),
		scpi.WithMetrics(metrics),
	)
	interp.AddPostHook(func(req scpi.Request, rec *scpi.Record) {
		ev := logger.Debug().Str("command", req.Name).Bool("query", req.Query)
		if rec != nil {
			ev = logger.Warn().Str("command", req.Name).
				Int16("number", rec.Number).Str("error", rec.Message)
		}
		ev.Msg("dispatch")
	})

	if cfg.MetricsListen != "" {
		serveMetrics(cfg.MetricsListen, metrics, logger)
	}

	logger.Info().
		Str("model", cfg.Identity.Model).
		Int("commands", tree.Len()).
		Msg("instrument ready")

	return repl(interp, cfg.HistoryFile, logger)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func buildTree() (*scpi.Tree, error) {
	b := scpi.NewBuilder()
	newInstrument().register(b)
	b.StandardCommands()
	return b.Build()
}

// repl reads command lines until EOF, feeding each to the interpreter and
// printing its responses.
func repl(interp *scpi.Interpreter, historyFile string, logger zerolog.Logger) int {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:                 "scpi> ",
		HistoryFile:            historyFile,
		HistoryLimit:           500,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: readline init: %v\n", err)
		return 1
	}
	defer rl.Close()

	var out bytes.Buffer
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			logger.Info().Msg("session closed")
			return 0
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read: %v\n", err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := rl.SaveToHistory(line); err != nil {
			logger.Debug().Err(err).Msg("history save failed")
		}

		out.Reset()
		interp.Exec([]byte(line+"\n"), &out)
		if out.Len() > 0 {
			os.Stdout.Write(out.Bytes())
		}
	}
}
