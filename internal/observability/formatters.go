// Package observability renders human-readable run reports for the CLI.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/singerliu226/AI-resipe/internal/db"
	"github.com/singerliu226/AI-resipe/internal/ingestion"
	"github.com/singerliu226/AI-resipe/internal/pipeline"
)

// Printer writes formatted tables to out.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

// PrintSummary outputs one crawl job's result.
func (p *Printer) PrintSummary(s *pipeline.Summary) {
	if s == nil {
		return
	}
	t := p.newTable()
	t.SetTitle("Job: " + s.Job)
	t.AppendRows([]table.Row{
		{"Source", s.Source},
		{"Tried", strings.Join(s.Tried, " -> ")},
		{"Records", s.Records},
		{"Failed tasks", s.Failed},
		{"Output", s.OutputPath},
		{"Elapsed", s.Elapsed.Round(time.Millisecond)},
		{"Run ID", s.RunID},
	})
	t.Render()
}

// PrintImport outputs the result of loading a nutrition CSV into the store.
func (p *Printer) PrintImport(path string, s *ingestion.ImportSummary) {
	if s == nil {
		return
	}
	t := p.newTable()
	t.SetTitle("Import: " + path)
	t.AppendHeader(table.Row{"Read", "Imported", "Skipped", "Failed"})
	t.AppendRow(table.Row{s.Read, s.Imported, s.Skipped, s.Failed})
	t.Render()
}

// PrintRuns lists recorded crawl runs, newest first as given.
func (p *Printer) PrintRuns(runs []db.Run) {
	if len(runs) == 0 {
		//nolint:errcheck // writing to stdout; errors are not recoverable
		fmt.Fprintln(p.out, "No runs recorded.")
		return
	}
	t := p.newTable()
	t.AppendHeader(table.Row{"Started", "Job", "Status", "Records", "Failed", "Output"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.CreatedAt.Local().Format(time.DateTime),
			r.Job,
			r.Status,
			r.Records,
			r.FailedTasks,
			r.OutputPath,
		})
	}
	t.Render()
}

// PrintIngredientReport outputs the ingredient counts and sample rows.
// Missing nutrients print as N/A.
func (p *Printer) PrintIngredientReport(r *db.IngredientReport) {
	if r == nil {
		return
	}
	t := p.newTable()
	t.SetTitle(fmt.Sprintf("Ingredients: %d total, %d with energy", r.Total, r.WithEnergy))
	t.AppendHeader(table.Row{"Name", "Energy (kcal)", "Protein (g)", "Fat (g)", "Carb (g)"})
	for _, ing := range r.Sample {
		t.AppendRow(table.Row{ing.Name, orNA(ing.EnergyKcal), orNA(ing.ProteinG), orNA(ing.FatG), orNA(ing.CarbG)})
	}
	t.Render()
}

func orNA(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
