// Package report renders terminal tables for divscan commands.
package report

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/wizzomafizzo/divscan/internal/constants"
	"github.com/wizzomafizzo/divscan/internal/dashboard"
	"github.com/wizzomafizzo/divscan/internal/dataset"
	"github.com/wizzomafizzo/divscan/internal/history"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// Stocks renders the dividend stock list
func Stocks(w io.Writer, rows []dashboard.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 stocks)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Symbol", "Sector", "Market Cap (B)"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Symbol, r.Sector, r.MarketCap})
	}
	t.AppendFooter(table.Row{"Total", "", len(rows)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

// Runs renders recorded stage runs, newest first as given
func Runs(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs recorded)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Stage", "Started", "Duration", "Processed", "Failed", "Status"})
	for _, r := range runs {
		duration := "-"
		if r.Finished() {
			duration = r.Duration().Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			r.ID,
			r.Stage,
			r.StartedAt.Local().Format(timeLayout),
			duration,
			r.Processed,
			r.Failed,
			runStatus(r),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

func runStatus(r history.Run) string {
	switch {
	case !r.Finished():
		return "running"
	case r.Error != "":
		return "failed: " + r.Error
	default:
		return "ok"
	}
}

// FileStatus describes one workspace data file or directory
type FileStatus struct {
	Name    string
	Entries int
	Exists  bool
}

// Inventory counts the entries of every workspace data file
func Inventory(store *dataset.Store) ([]FileStatus, error) {
	counters := []struct {
		count func() (int, error)
		name  string
	}{
		{name: constants.SymbolsFile, count: func() (int, error) {
			names, err := store.ReadSymbolNames()
			return len(names), err
		}},
		{name: constants.DividendDir, count: func() (int, error) {
			files, err := store.ListDividendFiles()
			return len(files), err
		}},
		{name: constants.DividendSymbolsFile, count: func() (int, error) {
			symbols, err := store.ReadDividendSymbols()
			return len(symbols), err
		}},
		{name: constants.PriceDir, count: func() (int, error) {
			files, err := store.ListPriceFiles()
			return len(files), err
		}},
	}

	out := make([]FileStatus, 0, len(counters))
	for _, c := range counters {
		n, err := c.count()
		if errors.Is(err, fs.ErrNotExist) {
			out = append(out, FileStatus{Name: c.name})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", c.name, err)
		}
		out = append(out, FileStatus{Name: c.name, Exists: true, Entries: n})
	}
	return out, nil
}

// Files renders an inventory
func Files(w io.Writer, files []FileStatus) {
	t := newTable(w)
	t.AppendHeader(table.Row{"File", "Present", "Entries"})
	for _, f := range files {
		present, entries := "no", "-"
		if f.Exists {
			present, entries = "yes", fmt.Sprint(f.Entries)
		}
		t.AppendRow(table.Row{f.Name, present, entries})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}
