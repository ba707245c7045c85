package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/aexfood/orders/internal/domain/client"
)

const progressEvery = 100_000

type importOptions struct {
	files    []string
	expected uint
	fpr      float64
	workers  int
	dryRun   bool
}

// upserter stores a client keyed by phone.
type upserter interface {
	Upsert(ctx context.Context, c *client.Client) (inserted bool, err error)
}

type discard struct{}

func (discard) Upsert(context.Context, *client.Client) (bool, error) { return true, nil }

type importStats struct {
	rows       int64
	inserted   int64
	updated    int64
	duplicates int64
	invalid    int64
}

// record is one CSV row with its position for reporting.
type record struct {
	file  string
	line  int
	name  string
	phone string
}

// importClients runs two passes over the files. The first pass feeds every
// phone through a bloom filter; phones the filter has already seen become
// duplicate candidates. The second pass imports each row, tracking exact
// occurrences only for candidates, so memory stays bounded by the filter
// size plus the candidate set.
func importClients(ctx context.Context, sink upserter, opts importOptions) (*importStats, error) {
	slog.Info("pass 1: scanning phones", slog.Int("files", len(opts.files)))

	candidates, err := findCandidates(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find duplicate candidates")
	}

	slog.Info("pass 1 complete", slog.Int("candidates", len(candidates)))
	slog.Info("pass 2: importing", slog.Int("workers", opts.workers))

	var stats importStats
	records := make(chan record, max(opts.workers, 1)*4)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(records)
		seen := make(map[string]struct{}, len(candidates))
		for _, path := range opts.files {
			err := streamCSV(gctx, path, func(r record) error {
				n := atomic.AddInt64(&stats.rows, 1)
				if n%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.Int64("rows", n))
				}

				c := &client.Client{Name: r.name, Phone: r.phone}
				if err := client.Validate(c); err != nil {
					atomic.AddInt64(&stats.invalid, 1)
					slog.Warn("invalid row", slog.String("file", r.file), slog.Int("line", r.line), slog.String("error", err.Error()))
					return nil
				}
				if _, ok := candidates[r.phone]; ok {
					if _, dup := seen[r.phone]; dup {
						atomic.AddInt64(&stats.duplicates, 1)
						slog.Warn("duplicate phone skipped",
							slog.String("file", r.file),
							slog.Int("line", r.line),
							slog.String("phone", r.phone),
						)
						return nil
					}
					seen[r.phone] = struct{}{}
				}

				select {
				case records <- r:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	for range max(opts.workers, 1) {
		g.Go(func() error {
			for r := range records {
				inserted, err := sink.Upsert(gctx, &client.Client{Name: r.name, Phone: r.phone})
				if err != nil {
					return errors.Wrapf(err, "%s:%d", r.file, r.line)
				}
				if inserted {
					atomic.AddInt64(&stats.inserted, 1)
				} else {
					atomic.AddInt64(&stats.updated, 1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &stats, err
	}
	return &stats, nil
}

// findCandidates returns the phones the bloom filter reported as already
// seen. False positives only cost an exact check in the second pass.
func findCandidates(ctx context.Context, opts importOptions) (map[string]struct{}, error) {
	filter := bloom.NewWithEstimates(max(opts.expected, 1), opts.fpr)
	candidates := make(map[string]struct{})
	for _, path := range opts.files {
		err := streamCSV(ctx, path, func(r record) error {
			if filter.TestAndAddString(r.phone) {
				candidates[r.phone] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

// streamCSV decompresses path and calls fn for each "name,phone" row. A
// leading header row is skipped.
func streamCSV(ctx context.Context, path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		name, phone := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if line == 1 && strings.EqualFold(name, "name") && strings.EqualFold(phone, "phone") {
			continue
		}
		if err := fn(record{file: path, line: line, name: name, phone: phone}); err != nil {
			return err
		}
	}
}
