package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mcncl/pastecs/internal/analyzer"
	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/formatter"
	"github.com/mcncl/pastecs/internal/generator"
	"github.com/mcncl/pastecs/internal/models"
	"github.com/mcncl/pastecs/internal/parser"
	"github.com/mcncl/pastecs/internal/schema"
)

// CLI defines the command-line interface
var CLI struct {
	File        string `arg:"" optional:"" help:"The file containing the JSON document. If not specified, reads from stdin." type:"path"`
	Output      string `help:"Path to the output file. If not specified, writes to stdout." short:"o" type:"path"`
	RootName    string `help:"Name for the root class." short:"r" default:"Root"`
	Namespace   string `help:"Wrap the declarations in the given C# namespace." short:"n"`
	Schema      bool   `help:"Treat the input as a JSON Schema document instead of a JSON value." short:"s"`
	Config      string `help:"Path to a config file. Defaults to the nearest .pastecs.yml." short:"c" type:"path"`
	MaxDepth    int    `help:"Maximum JSON nesting depth." default:"500"`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	cliParser := kong.Must(&CLI,
		kong.Name("pastecs"),
		kong.Description("Generates C# classes to represent the given JSON."),
		kong.UsageOnError(),
	)

	// Without arguments and without piped input, drop into interactive mode
	if len(os.Args) == 1 {
		if stdinInfo, err := os.Stdin.Stat(); err == nil && (stdinInfo.Mode()&os.ModeCharDevice) != 0 {
			CLI.Interactive = true
		}
	}

	if _, err := cliParser.Parse(os.Args[1:]); err != nil {
		// The usage has already been shown by kong.UsageOnError()
		os.Exit(1)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("pastecs version %s\n", Version)
		return
	}

	cfg, err := loadConfig()
	if err == nil {
		err = run(&Context{Debug: CLI.Debug, Config: cfg})
	}
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints a user-friendly message to stderr, in red when the
// terminal supports it.
func reportError(err error) {
	red := color.New(color.FgRed)
	red.Fprintln(os.Stderr, errors.UserFriendlyError(err))
	fmt.Fprintf(os.Stderr, "\nFor help, run: pastecs --help\n")
}

// loadConfig resolves the effective configuration: config file values first,
// then explicit CLI flags on top.
func loadConfig() (*config.Config, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg := config.NewConfig()
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, errors.NewInputError("failed to load config file", err)
		}
		cfg = fileCfg
	}

	// CLI flags left at their defaults never clobber config file values.
	if CLI.RootName != "" && CLI.RootName != config.DefaultRootName {
		cfg.RootName = CLI.RootName
	}
	if CLI.Namespace != "" {
		cfg.Output.Namespace = CLI.Namespace
	}
	if CLI.MaxDepth > 0 && CLI.MaxDepth != config.DefaultMaxDepth {
		cfg.MaxDepth = CLI.MaxDepth
	}

	return cfg, nil
}

// run executes the main program logic
func run(ctx *Context) error {
	var forest *models.ClassForest
	var err error

	if CLI.Schema {
		forest, err = convertSchemaInput(ctx.Config)
	} else {
		forest, err = analyzeDocumentInput(ctx.Config)
	}
	if err != nil {
		return err
	}

	// Render the declarations
	gen := generator.NewGeneratorWithConfig(ctx.Config)
	code, err := gen.Generate(forest)
	if err != nil {
		return err
	}

	// Normalise the output text
	form := formatter.NewFormatterWithIndent(ctx.Config.Output.Indent)
	code, err = form.Format(code)
	if err != nil {
		return errors.NewGenerateError("failed to format declarations", err)
	}

	return writeOutput(code)
}

// analyzeDocumentInput parses a JSON document and infers its class forest.
func analyzeDocumentInput(cfg *config.Config) (*models.ClassForest, error) {
	root, err := parseInput(cfg)
	if err != nil {
		return nil, err
	}
	return analyzer.NewAnalyzerWithConfig(cfg).Analyze(root)
}

// convertSchemaInput parses a JSON Schema document and converts it.
func convertSchemaInput(cfg *config.Config) (*models.ClassForest, error) {
	data, err := readInput()
	if err != nil {
		return nil, err
	}
	s, err := schema.ParseString(data)
	if err != nil {
		return nil, errors.NewParsingError("failed to parse JSON Schema", err)
	}
	rootName := cfg.RootName
	if rootName == config.DefaultRootName {
		rootName = "" // let the schema title name the root if it has one
	}
	return schema.NewConverter(s).Convert(rootName)
}

// parseInput reads JSON from the file argument or stdin
func parseInput(cfg *config.Config) (models.JSONValue, error) {
	if CLI.File != "" {
		return parser.ParseFileWithDepth(CLI.File, cfg.MaxDepth)
	}

	data, err := readInput()
	if err != nil {
		return nil, err
	}
	return parser.ParseStringWithDepth(data, cfg.MaxDepth)
}

// readInput returns the raw input text from the file argument or stdin.
func readInput() (string, error) {
	if CLI.File != "" {
		data, err := os.ReadFile(CLI.File)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NewInputError(
					fmt.Sprintf("file '%s' not found", CLI.File), errors.ErrFileNotFound)
			}
			return "", errors.NewInputError(
				fmt.Sprintf("failed to read file '%s'", CLI.File), err)
		}
		return string(data), nil
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	// Read from stdin (piped input)
	jsonData, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(jsonData) == 0 {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(jsonData), nil
}

// writeOutput writes the declarations to file or stdout
func writeOutput(code string) error {
	if CLI.Output != "" {
		err := os.WriteFile(CLI.Output, []byte(code), 0644)
		if err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Generated C# classes written to %s\n", CLI.Output)
		return nil
	}

	// Write to stdout
	_, err := fmt.Print(code)
	if err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (string, error) {
	fmt.Fprintln(os.Stderr, "pastecs Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	// Read all input until EOF (Ctrl+D)
	reader := bufio.NewReader(os.Stdin)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if len(strings.TrimSpace(jsonData)) == 0 {
		return "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing JSON...")
	return jsonData, nil
}
