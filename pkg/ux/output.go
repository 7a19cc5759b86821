// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output for the portal CLI.
//
// A Printer renders in one of two modes. Styled mode (an interactive
// terminal) uses lipgloss boxes, colors and tables. Plain mode (pipes,
// files, CI) writes stable tab-separated lines that are safe to grep or cut.
package ux

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/campus-kb/portal/services/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Portal palette
var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorPrimary = lipgloss.Color("#20B9B4")
	ColorBorder  = lipgloss.Color("#16858E")
	ColorMuted   = lipgloss.Color("#5C7A84")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
)

// styles is the lipgloss style set bound to one renderer.
type styles struct {
	title      lipgloss.Style
	muted      lipgloss.Style
	warning    lipgloss.Style
	errorText  lipgloss.Style
	box        lipgloss.Style
	warningBox lipgloss.Style
	header     lipgloss.Style
	cell       lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:      r.NewStyle().Bold(true).Foreground(ColorAccent),
		muted:      r.NewStyle().Foreground(ColorMuted),
		warning:    r.NewStyle().Foreground(ColorWarning),
		errorText:  r.NewStyle().Foreground(ColorError),
		box:        r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1).Width(80),
		warningBox: r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorWarning).Padding(0, 1).Width(80),
		header:     r.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1),
		cell:       r.NewStyle().Padding(0, 1),
	}
}

// =============================================================================
// Printer
// =============================================================================

// Printer writes CLI output.
//
// # Thread Safety
//
// Not safe for concurrent use; each command owns its Printer.
type Printer struct {
	w      io.Writer
	styled bool
	s      styles
}

// NewPrinter returns a Printer on w. styled selects the lipgloss mode.
func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled, s: newStyles(lipgloss.NewRenderer(w))}
}

// Styled reports whether the printer renders in lipgloss mode.
func (p *Printer) Styled() bool { return p.styled }

// Answer prints an answer with its provenance.
func (p *Printer) Answer(text, provider string, exhausted bool) {
	if !p.styled {
		if exhausted {
			fmt.Fprintf(p.w, "EXHAUSTED\t%s\n", text)
			return
		}
		fmt.Fprintf(p.w, "%s\n\nprovider: %s\n", text, provider)
		return
	}

	if exhausted {
		title := p.s.warning.Bold(true).Render(string(IconWarning) + " No provider available")
		fmt.Fprintln(p.w, p.s.warningBox.Render(title+"\n"+text))
		return
	}
	fmt.Fprintln(p.w, p.s.box.Render(text))
	fmt.Fprintln(p.w, p.s.muted.Render("answered by "+provider))
}

// Results prints a ranked search list, the category counts and any failed
// sources.
func (p *Printer) Results(res search.SearchResult, shown []search.ScoredResult) {
	if !p.styled {
		for _, r := range shown {
			fmt.Fprintf(p.w, "%d\t%s\t%s\t%s\t%s\n", r.Score, r.Category, r.Source, r.Title, r.Path)
		}
		for _, s := range res.Sources {
			if s.Error != "" {
				fmt.Fprintf(p.w, "WARN\t%s\t%s\n", s.Source, s.Error)
			}
		}
		return
	}

	fmt.Fprintln(p.w, p.s.title.Render(fmt.Sprintf("Results for %q", res.Query)))
	if len(shown) == 0 {
		fmt.Fprintln(p.w, p.s.muted.Render("no matching materials"))
	} else {
		fmt.Fprintln(p.w, p.table(shown))
	}
	fmt.Fprintln(p.w, p.s.muted.Render(countsLine(res.Counts)))
	for _, s := range res.Sources {
		if s.Error != "" {
			fmt.Fprintln(p.w, p.s.warning.Render(fmt.Sprintf("%s %s unavailable: %s", IconWarning, s.Source, s.Error)))
		}
	}
}

// Error prints a failure line.
func (p *Printer) Error(text string) {
	if !p.styled {
		fmt.Fprintf(p.w, "ERROR\t%s\n", text)
		return
	}
	fmt.Fprintln(p.w, p.s.errorText.Render(string(IconError)+" "+text))
}

func (p *Printer) table(rows []search.ScoredResult) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers("SCORE", "TYPE", "SOURCE", "TITLE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.s.header
			}
			return p.s.cell
		})
	for _, r := range rows {
		t.Row(strconv.Itoa(r.Score), r.Category, string(r.Source), r.Title)
	}
	return t.Render()
}

// countsLine renders "all 5 • notes 2 • ..." in the fixed category order.
func countsLine(counts map[string]int) string {
	parts := make([]string, 0, len(search.Categories))
	for _, c := range search.Categories {
		parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
	}
	return strings.Join(parts, " "+string(IconBullet)+" ")
}
