package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	cloudy "github.com/cloudylang/cloudy/src"
	"github.com/pkg/errors"
)

var version = "dev" // set via -ldflags at build time

func main() {
	cliConfig, configDir, cfgErr := loadCLIConfig()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		os.Exit(130)
	}()

	debugFlag := flag.Bool("debug", false, "Enable debug output")
	flag.BoolVar(debugFlag, "d", false, "Enable debug output (short)")
	categoriesFlag := flag.String("log", "", "Comma-separated debug categories (default: all)")
	tokensFlag := flag.Bool("tokens", false, "Print the token stream and exit")
	astFlag := flag.Bool("ast", false, "Print the AST as JSON and exit")
	noTracebackFlag := flag.Bool("no-traceback", false, "Omit tracebacks from runtime errors")
	versionFlag := flag.Bool("version", false, "Show version and exit")

	flag.Usage = showUsage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("cloudy version %s\n", version)
		os.Exit(0)
	}

	ttl, ttlErr := cliConfig.cacheTTL()

	config := cloudy.DefaultConfig()
	config.Debug = *debugFlag || cliConfig.Debug
	config.LogCategories = parseCategories(*categoriesFlag)
	config.ShowTraceback = !*noTracebackFlag
	config.ScriptCacheTTL = ttl

	args := flag.Args()
	var scriptFile string
	if len(args) > 0 {
		scriptFile = findScriptFile(args[0])
		if abs, err := filepath.Abs(scriptFile); scriptFile != "" && err == nil {
			config.ScriptDir = filepath.Dir(abs)
		}
	}

	in := cloudy.New(config)
	log := in.Logger()

	if cfgErr != nil && config.Debug {
		log.Warn("config: %v", cfgErr)
	}
	if ttlErr != nil {
		log.Warn("config: %v", ttlErr)
	}

	var name, source string
	switch {
	case len(args) > 0:
		if scriptFile == "" {
			log.Fatal("Script file not found: %s", args[0])
			os.Exit(1)
		}
		content, err := os.ReadFile(scriptFile)
		if err != nil {
			log.Report(errors.Wrap(err, "reading script file"))
			os.Exit(1)
		}
		name, source = scriptFile, string(content)

	case !cloudy.IsTerminalReader(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Report(errors.Wrap(err, "reading stdin"))
			os.Exit(1)
		}
		name, source = "<stdin>", string(content)

	default:
		if *tokensFlag || *astFlag {
			log.Fatal("-tokens and -ast need a script file or piped input")
			os.Exit(2)
		}
		os.Exit(runREPL(in, cliConfig, configDir))
	}

	switch {
	case *tokensFlag:
		os.Exit(dumpTokens(log, name, source))
	case *astFlag:
		os.Exit(dumpAST(log, name, source))
	}

	if _, err := in.Run(name, source); err != nil {
		log.Report(err)
		os.Exit(1)
	}
}

// parseCategories turns "eval,scope" into logger categories
func parseCategories(list string) []cloudy.LogCategory {
	var cats []cloudy.LogCategory
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cats = append(cats, cloudy.LogCategory(name))
		}
	}
	return cats
}

func findScriptFile(filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return filename
	}
	if filepath.Ext(filename) == "" {
		withExt := filename + ".cdy"
		if _, err := os.Stat(withExt); err == nil {
			return withExt
		}
	}
	return ""
}

func dumpTokens(log *cloudy.Logger, name, source string) int {
	tokens, err := cloudy.Tokenize(name, source)
	if err != nil {
		log.Report(err)
		return 1
	}
	for _, tok := range tokens {
		fmt.Println(tok.String())
	}
	return 0
}

func dumpAST(log *cloudy.Logger, name, source string) int {
	node, err := cloudy.Parse(name, source)
	if err != nil {
		log.Report(err)
		return 1
	}
	out, err := cloudy.DumpAST(node)
	if err != nil {
		log.Report(errors.Wrap(err, "encoding AST"))
		return 1
	}
	fmt.Println(out)
	return 0
}

func runREPL(in *cloudy.Interpreter, cliConfig CLIConfig, configDir string) int {
	repl := cloudy.NewREPL(in, cloudy.REPLConfig{
		HistoryFile:     cliConfig.historyPath(configDir),
		LightBackground: cliConfig.lightBackground(),
		ShowBanner:      true,
		Banner:          fmt.Sprintf("cloudy %s\nInteractive mode. Type 'exit' or 'quit' to leave.\n", version),
	}, os.Stdout, os.Stderr)
	if err := repl.Run(); err != nil {
		in.Logger().Report(err)
		return 1
	}
	return 0
}

func showUsage() {
	usage := `Usage: cloudy [options] [script.cdy]
       cloudy [options] < input.cdy

Execute a cloudy program from a file or pipe, or start the REPL.

Options:
  -d, -debug          Enable debug output
  -log CATS           Debug categories: lex,parse,eval,scope,builtin,io,run,repl
  -tokens             Print the token stream and exit
  -ast                Print the AST as JSON and exit
  -no-traceback       Omit tracebacks from runtime errors
  -version            Show version and exit

Arguments:
  script.cdy          Script file to execute (adds .cdy extension if needed)

Configuration is read from ~/.cloudy/cloudy-cli.yaml.
`
	fmt.Fprint(os.Stderr, usage)
}
