// Shared helpers for listings CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/listings/internal/metrics"
	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

// withStore attaches a backend for the duration of fn. With --metrics-file the
// operation metrics are written once the store is detached, failures included.
func (a *app) withStore(fn func(store *sqlite.Backend) error) (err error) {
	if a.flagMetricsFile != "" {
		defer func() {
			if merr := metrics.WriteFile(a.flagMetricsFile, prometheus.DefaultGatherer); merr != nil {
				err = errors.Join(err, merr)
			}
		}()
	}

	dataDir, err := a.resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	store := sqlite.NewBackend(a.logger)
	cfg := types.Config{
		Backend:            a.cfg.GetString(cfgKeyBackend),
		DataDir:            dataDir,
		DatabaseFile:       a.cfg.GetString(cfgKeyDatabaseFile),
		DestructiveUpgrade: a.cfg.GetBool(cfgKeyDestructiveUpgrade),
	}
	if err := store.Attach(cfg); err != nil {
		return fmt.Errorf("attach store: %w", err)
	}
	defer func() {
		if derr := store.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach store: %w", derr)
		}
	}()
	return fn(store)
}

// emit writes v as indented JSON with --json, otherwise calls text.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flagJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	text(out)
	return nil
}

// table writes aligned columns, one row per call to row.
func table(w io.Writer, header string, rows func(tw io.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	tw.Flush()
}

// parseID parses a positional row id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", s, types.ErrInvalidID)
	}
	return id, nil
}

// parseIDs parses every argument with parseID.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// parseFilter turns key=value arguments into a Filter. A value written as a
// canonical base-10 integer becomes int64; everything else stays the literal
// string, and column affinity handles the comparison.
func parseFilter(args []string) (types.Filter, error) {
	filter := types.Filter{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value): %w", arg, types.ErrInvalidFilter)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && strconv.FormatInt(n, 10) == value {
			filter[key] = n
			continue
		}
		filter[key] = value
	}
	return filter, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
