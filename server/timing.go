//
// timing.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

package server

import (
	"fmt"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/Dyslex7c/mta-cot-protocol-tcp/wire"
)

// Timing records per-phase timing samples for one protocol session
// and renders a profiling report.
type Timing struct {
	Start   time.Time
	Samples []*Sample
}

// Sample is one timed protocol phase.
type Sample struct {
	Label string
	Start time.Time
	End   time.Time
}

// NewTiming creates a new Timing instance.
func NewTiming() *Timing {
	return &Timing{
		Start: time.Now(),
	}
}

// Sample adds a timing sample with the label. The sample covers the
// time since the previous sample.
func (t *Timing) Sample(label string) *Sample {
	start := t.Start
	if len(t.Samples) > 0 {
		start = t.Samples[len(t.Samples)-1].End
	}
	sample := &Sample{
		Label: label,
		Start: start,
		End:   time.Now(),
	}
	t.Samples = append(t.Samples, sample)
	return sample
}

// Print prints the profiling report to standard output.
func (t *Timing) Print(stats *wire.IOStats) {
	if len(t.Samples) == 0 {
		return
	}

	sent := stats.Sent.Load()
	received := stats.Recvd.Load()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Phase").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)

	total := t.Samples[len(t.Samples)-1].End.Sub(t.Start)
	for _, sample := range t.Samples {
		row := tab.Row()
		row.Column(sample.Label)

		duration := sample.End.Sub(sample.Start)
		row.Column(duration.String())
		row.Column(fmt.Sprintf("%.2f%%",
			float64(duration)/float64(total)*100))
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("├╴Sent").SetFormat(tabulate.FmtItalic)
	row.Column(fileSize(sent).String()).SetFormat(tabulate.FmtItalic)
	row.Column("").SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("╰╴Rcvd").SetFormat(tabulate.FmtItalic)
	row.Column(fileSize(received).String()).SetFormat(tabulate.FmtItalic)
	row.Column("").SetFormat(tabulate.FmtItalic)

	tab.Print(os.Stdout)
}

type fileSize uint64

func (s fileSize) String() string {
	switch {
	case s >= 1<<20:
		return fmt.Sprintf("%.2fMB", float64(s)/(1<<20))
	case s >= 1<<10:
		return fmt.Sprintf("%.2fkB", float64(s)/(1<<10))
	default:
		return fmt.Sprintf("%dB", uint64(s))
	}
}
