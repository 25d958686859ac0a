/*
 *  Copyright 2026 porterlab
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package report prints the statistics of a standalone run to the console.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/porterlab/porterload"
	"github.com/porterlab/porterload/stats"
)

const (
	aggregatedName = "Aggregated"

	// histogram bounds in milliseconds
	histogramMin      = 1
	histogramMax      = 3_600_000
	histogramSigFigs  = 3
	nameColumnMaxSize = 48
)

var (
	// Percentiles are the columns of the response time percentile table.
	Percentiles = []float64{50, 66, 75, 80, 90, 95, 98, 99, 99.9, 99.99, 100}
)

// ColorScheme defines the colors used for the report.
type ColorScheme struct {
	Header  *color.Color
	Name    *color.Color
	Success *color.Color
	Failure *color.Color
	Total   *color.Color
}

func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:  color.New(color.FgCyan, color.Bold),
		Name:    color.New(color.FgBlue),
		Success: color.New(color.FgGreen),
		Failure: color.New(color.FgRed, color.Bold),
		Total:   color.New(color.FgMagenta, color.Bold),
	}
}

func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{scheme.Header, scheme.Name, scheme.Success, scheme.Failure, scheme.Total} {
		c.DisableColor()
	}
	return scheme
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type Printer struct {
	w      io.Writer
	scheme *ColorScheme
}

// NewPrinter returns a printer writing to w. Colors are used only on a terminal.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	scheme := DefaultColorScheme()
	if noColor || !IsTerminal(w) {
		scheme = NoColorScheme()
	} else {
		for _, c := range []*color.Color{scheme.Header, scheme.Name, scheme.Success, scheme.Failure, scheme.Total} {
			c.EnableColor()
		}
	}
	return &Printer{w: w, scheme: scheme}
}

// Print writes the request table, the percentile table, the errors and the exceptions of r.
func (p *Printer) Print(r *porterload.Result) error {
	var b strings.Builder

	p.printRequests(&b, r)
	b.WriteString("\n")
	p.printPercentiles(&b, r)
	if len(r.Errors) > 0 {
		b.WriteString("\n")
		p.printErrors(&b, r.Errors)
	}
	if len(r.Exceptions) > 0 {
		b.WriteString("\n")
		p.printExceptions(&b, r.Exceptions)
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) printRequests(b *strings.Builder, r *porterload.Result) {
	header := fmt.Sprintf("%-8s %-*s %9s %16s | %7s %7s %7s %7s | %8s %10s",
		"Type", nameColumnMaxSize, "Name", "# reqs", "# fails", "Avg", "Min", "Max", "Med", "req/s", "failures/s")
	separator := strings.Repeat("-", len(header)) + "\n"
	p.line(b, p.scheme.Header, header)
	b.WriteString(separator)

	seconds := r.Duration.Seconds()
	for _, key := range sortedKeys(r.Entries) {
		e := r.Entries[key]
		c := p.scheme.Name
		if e.NumFailures > 0 {
			c = p.scheme.Failure
		}
		p.line(b, c, requestRow(key.Method, key.Name, e, seconds))
	}
	b.WriteString(separator)
	p.line(b, p.scheme.Total, requestRow("", aggregatedName, r.Total, seconds))
}

func requestRow(method, name string, e *stats.Entry, seconds float64) string {
	fails := fmt.Sprintf("%d(%.2f%%)", e.NumFailures, e.FailRatio()*100)
	var rps, fps float64
	if seconds > 0 {
		rps = float64(e.NumRequests) / seconds
		fps = float64(e.NumFailures) / seconds
	}
	minResponseTime := time.Duration(0)
	if e.MinResponseTime > 0 {
		minResponseTime = e.MinResponseTime
	}
	return fmt.Sprintf("%-8s %-*s %9d %16s | %7d %7d %7d %7d | %8.2f %10.2f",
		method, nameColumnMaxSize, truncate(name, nameColumnMaxSize),
		e.NumRequests, fails,
		e.AvgResponseTime().Milliseconds(), minResponseTime.Milliseconds(), e.MaxResponseTime.Milliseconds(),
		Percentile(e, 50), rps, fps)
}

func (p *Printer) printPercentiles(b *strings.Builder, r *porterload.Result) {
	header := fmt.Sprintf("%-8s %-*s", "Type", nameColumnMaxSize, "Name")
	for _, q := range Percentiles {
		header += fmt.Sprintf(" %6s", formatPercentile(q))
	}
	header += fmt.Sprintf(" %7s", "# reqs")
	p.line(b, p.scheme.Header, header)

	row := func(method, name string, e *stats.Entry) string {
		s := fmt.Sprintf("%-8s %-*s", method, nameColumnMaxSize, truncate(name, nameColumnMaxSize))
		for _, q := range Percentiles {
			s += fmt.Sprintf(" %6d", Percentile(e, q))
		}
		return s + fmt.Sprintf(" %7d", e.NumRequests)
	}
	for _, key := range sortedKeys(r.Entries) {
		p.line(b, p.scheme.Name, row(key.Method, key.Name, r.Entries[key]))
	}
	p.line(b, p.scheme.Total, row("", aggregatedName, r.Total))
}

func (p *Printer) printErrors(b *strings.Builder, errs stats.Errors) {
	p.line(b, p.scheme.Header, fmt.Sprintf("%-12s %s", "# occurrences", "Error"))
	keys := make([]stats.ErrorKey, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if errs[keys[i]] != errs[keys[j]] {
			return errs[keys[i]] > errs[keys[j]]
		}
		return keys[i].Encode() < keys[j].Encode()
	})
	for _, k := range keys {
		p.line(b, p.scheme.Failure, fmt.Sprintf("%-12d  %s %s: %s", errs[k], k.Method, k.Name, k.Error))
	}
}

func (p *Printer) printExceptions(b *strings.Builder, exceptions []porterload.ExceptionCount) {
	p.line(b, p.scheme.Header, fmt.Sprintf("%-12s %s", "# occurrences", "Exception"))
	for _, e := range exceptions {
		p.line(b, p.scheme.Failure, fmt.Sprintf("%-12d  %s", e.Occurrences, e.Msg))
		if e.Traceback != "" {
			b.WriteString("              " + e.Traceback + "\n")
		}
	}
}

func (p *Printer) line(b *strings.Builder, c *color.Color, s string) {
	b.WriteString(c.Sprint(s))
	b.WriteString("\n")
}

// Percentile returns the response time in milliseconds below which q percent of the requests of e fall.
func Percentile(e *stats.Entry, q float64) int64 {
	if len(e.ResponseTimes) == 0 {
		return 0
	}
	hist := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
	for ms, n := range e.ResponseTimes {
		_ = hist.RecordValues(min(ms, histogramMax), n)
	}
	return hist.ValueAtQuantile(q)
}

func sortedKeys(entries stats.Entries) []stats.EntryKey {
	keys := make([]stats.EntryKey, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Method < keys[j].Method
	})
	return keys
}

func formatPercentile(q float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".") + "%"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
