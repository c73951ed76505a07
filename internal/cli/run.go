package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"binu8-translator/internal/config"
	"binu8-translator/internal/container"
	"binu8-translator/internal/filewalker"
	"binu8-translator/internal/store"
	"binu8-translator/internal/textutil"
	"binu8-translator/internal/transport"
	"binu8-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// runDump handles the `dump` command.
func runDump(ctx context.Context, cfg *config.Config, scriptDir, csvPath string) error {
	entries, err := newWalker(cfg).Walk(scriptDir)
	if err != nil {
		return fmt.Errorf("walk script folder: %w", err)
	}

	log.Info().Int("files", len(entries)).Msg("Processing files")

	pool := worker.NewPool[filewalker.FileEntry, []transport.Row](cfg.WorkerCount, dumpFile)
	tasks := pool.Execute(ctx, entries)
	if err := ctx.Err(); err != nil {
		return err
	}

	var rows []transport.Row
	for _, t := range tasks {
		if t.Err == nil {
			rows = append(rows, t.Result...)
		}
	}

	if err := transport.Save(csvPath, rows); err != nil {
		return err
	}

	if cfg.DatabaseURL != "" {
		err := withStore(ctx, cfg, func(s *store.StringStore) error {
			return s.SaveRows(ctx, rows)
		})
		if err != nil {
			return err
		}
	}

	return reportFailures(tasks)
}

func dumpFile(ctx context.Context, fe filewalker.FileEntry) ([]transport.Row, error) {
	buf, err := os.ReadFile(fe.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fe.RelPath, err)
	}

	entries, err := container.Dump(buf)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", fe.RelPath, err)
	}

	rows := make([]transport.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, transport.Row{
			File:     fe.RelPath,
			ID:       e.Index,
			Original: e.Text,
		})
	}

	log.Debug().Str("file", fe.RelPath).Int("strings", len(rows)).Msg("File dumped")
	return rows, nil
}

// runImport handles the `import` command.
func runImport(ctx context.Context, cfg *config.Config, scriptDir, csvPath, outputDir string) error {
	translations, err := loadTranslations(ctx, cfg, csvPath)
	if err != nil {
		return err
	}

	entries, err := newWalker(cfg).Walk(scriptDir)
	if err != nil {
		return fmt.Errorf("walk script folder: %w", err)
	}

	outputAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("resolve output folder: %w", err)
	}
	if err := os.MkdirAll(outputAbs, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log.Info().Int("files", len(entries)).Msg("Importing into files")

	pool := worker.NewPool[filewalker.FileEntry, string](cfg.WorkerCount,
		func(ctx context.Context, fe filewalker.FileEntry) (string, error) {
			return importFile(fe, translations.For(fe.RelPath), outputAbs)
		},
	)
	tasks := pool.Execute(ctx, entries)

	log.Info().Str("output", outputAbs).Msg("Import complete")
	return reportFailures(tasks)
}

func importFile(fe filewalker.FileEntry, tr container.Translations, outputDir string) (string, error) {
	buf, err := os.ReadFile(fe.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fe.RelPath, err)
	}

	out, err := container.Repack(buf, tr)
	if err != nil {
		return "", fmt.Errorf("repack %s: %w", fe.RelPath, err)
	}

	outPath := filepath.Join(outputDir, filepath.FromSlash(fe.RelPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}

	log.Debug().
		Str("file", fe.RelPath).
		Int("translations", len(tr)).
		Msg("File rebuilt")
	return outPath, nil
}

// loadTranslations builds the translation map from the store, if configured,
// then overlays the CSV.
func loadTranslations(ctx context.Context, cfg *config.Config, csvPath string) (transport.TranslationMap, error) {
	translations := make(transport.TranslationMap)

	if cfg.DatabaseURL != "" {
		err := withStore(ctx, cfg, func(s *store.StringStore) error {
			m, err := s.LoadTranslations(ctx)
			if err != nil {
				return err
			}
			translations = m
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	fromCSV, err := transport.Load(csvPath)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	translations.Merge(fromCSV)

	return translations, nil
}

func withStore(ctx context.Context, cfg *config.Config, fn func(s *store.StringStore) error) error {
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	s := store.NewStringStore(pool, cfg.DBBatchSize)
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(s)
}

// reportFailures logs every failed or skipped file and returns an error when
// any file did not complete.
func reportFailures[R any](tasks []worker.Task[filewalker.FileEntry, R]) error {
	failed := worker.Failed(tasks)
	for _, t := range failed {
		log.Error().Err(t.Err).Str("file", t.Input.RelPath).Msg("File failed")
	}
	skipped := worker.Skipped(tasks)
	for _, t := range skipped {
		log.Warn().Str("file", t.Input.RelPath).Msg("File skipped")
	}

	log.Info().
		Int("files", len(tasks)).
		Int("failed", len(failed)).
		Int("skipped", len(skipped)).
		Msg("Done")

	switch {
	case len(failed) > 0:
		return fmt.Errorf("%d of %d files failed", len(failed), len(tasks))
	case len(skipped) > 0:
		return fmt.Errorf("%d of %d files skipped", len(skipped), len(tasks))
	}
	return nil
}

// runInspect handles the `inspect` command.
func runInspect(w io.Writer, paths []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tVARIANT\tOFFSET\tSTRINGS\tFIRST")

	failed := 0
	for _, p := range paths {
		buf, err := os.ReadFile(p)
		if err != nil {
			log.Error().Err(err).Str("file", p).Msg("Read failed")
			failed++
			continue
		}

		info, err := container.Inspect(buf)
		if err != nil {
			log.Error().Err(err).Str("file", p).Msg("Inspect failed")
			failed++
			continue
		}

		first := ""
		if entries, err := container.Dump(buf); err == nil && len(entries) > 0 {
			first = textutil.Truncate(textutil.Escape(entries[0].Text), 30)
		}

		fmt.Fprintf(tw, "%s\t%s\t0x%X\t%d\t%s\n",
			p, info.Header.Variant, info.Header.StringTableOffset, info.EntryCount(), first)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write inspect output: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}
