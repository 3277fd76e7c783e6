package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/eshaffer321/recurring-finder/internal/adapters/links"
	"github.com/eshaffer321/recurring-finder/internal/adapters/statement"
	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/config"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
)

// RunFind loads the statements named by flags, detects recurring charges
// and prints the report to out.
func RunFind(ctx context.Context, cfg *config.Config, flags *FindFlags, out io.Writer, logger *slog.Logger) error {
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	records, inputs, err := loadStatements(ctx, flags, logger)
	if err != nil {
		return err
	}

	resolver, err := links.Load(cfg.Links.File, cfg.Links.SimilarityThreshold, logger)
	if err != nil {
		return err
	}

	var store storage.Repository
	if flags.Save {
		s, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		store = s
	}

	svc := service.NewAnalysisService(cfg.Analysis.EngineConfig(), store, resolver, nil, logger)

	PrintHeader(out, inputs, len(records))
	report, err := svc.Analyze(ctx, service.AnalyzeRequest{
		Source:       sourceLabel(flags),
		Transactions: records,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	PrintReport(out, report)
	if flags.Save {
		PrintSaved(out, report.RunID, cfg.Storage.DatabasePath)
	}
	return nil
}

func loadStatements(ctx context.Context, flags *FindFlags, logger *slog.Logger) ([]transaction.Transaction, []string, error) {
	parser := statement.NewParser(logger)
	if flags.Dir != "" {
		records, err := parser.LoadDir(ctx, flags.Dir)
		return records, []string{flags.Dir}, err
	}
	records, err := parser.LoadFiles(ctx, flags.Files)
	return records, flags.Files, err
}

// sourceLabel names a run after its input: the directory, or the single
// statement file. Several files leave it empty.
func sourceLabel(flags *FindFlags) string {
	switch {
	case flags.Dir != "":
		return filepath.Base(filepath.Clean(flags.Dir))
	case len(flags.Files) == 1:
		return statement.SourceName(flags.Files[0])
	default:
		return ""
	}
}
