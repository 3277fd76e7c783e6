package cli

import (
	"errors"
	"flag"
	"io"

	"github.com/eshaffer321/recurring-finder/internal/infrastructure/config"
)

// ErrNoInput is returned when neither -dir nor statement files are given.
var ErrNoInput = errors.New("no input: pass -dir or one or more statement files")

// FindFlags are the flags of the find-recurring command.
type FindFlags struct {
	ConfigFile     string
	Dir            string
	Files          []string
	Threshold      int
	MinOccurrences int
	MaxGapDays     int
	Variance       float64
	LinksFile      string
	Save           bool
	Verbose        bool

	set map[string]bool
}

// ParseFindFlags parses args (without the program name). Engine flags only
// override the config when given explicitly.
func ParseFindFlags(args []string, stderr io.Writer) (*FindFlags, error) {
	flags := &FindFlags{set: make(map[string]bool)}
	defaults := config.Default().Analysis

	fs := flag.NewFlagSet("find-recurring", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (default: config.yaml, then environment)")
	fs.StringVar(&flags.Dir, "dir", "", "Directory of statement files (.csv, .txt)")
	fs.IntVar(&flags.Threshold, "threshold", defaults.SimilarityThreshold, "Merchant similarity threshold (0-100)")
	fs.IntVar(&flags.MinOccurrences, "min-occurrences", defaults.MinOccurrences, "Minimum regular charges to count as recurring")
	fs.IntVar(&flags.MaxGapDays, "max-gap-days", defaults.MaxGapDays, "Largest gap in days between charges")
	fs.Float64Var(&flags.Variance, "variance", defaults.AmountVariance, "Relative amount variance within a price point")
	fs.StringVar(&flags.LinksFile, "links", "", "Known merchants file for cancellation links")
	fs.BoolVar(&flags.Save, "save", false, "Persist the run to the database")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })
	flags.Files = fs.Args()

	if flags.Dir == "" && len(flags.Files) == 0 {
		return nil, ErrNoInput
	}
	if flags.Dir != "" && len(flags.Files) > 0 {
		return nil, errors.New("pass either -dir or statement files, not both")
	}
	return flags, nil
}

// Apply overlays explicitly set flags on cfg.
func (f *FindFlags) Apply(cfg *config.Config) {
	if f.set["threshold"] {
		cfg.Analysis.SimilarityThreshold = f.Threshold
	}
	if f.set["min-occurrences"] {
		cfg.Analysis.MinOccurrences = f.MinOccurrences
	}
	if f.set["max-gap-days"] {
		cfg.Analysis.MaxGapDays = f.MaxGapDays
	}
	if f.set["variance"] {
		cfg.Analysis.AmountVariance = f.Variance
	}
	if f.LinksFile != "" {
		cfg.Links.File = f.LinksFile
	}
	if f.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigFile string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command. A zero
// port keeps the configured one.
func ParseServeFlags(args []string, stderr io.Writer) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default: from config)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// LoadConfig loads path when given, otherwise config.yaml with environment
// fallback.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	return config.Load(path)
}
