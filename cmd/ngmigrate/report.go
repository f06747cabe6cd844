// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/AleutianAI/ngmigrate/services/migrate"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// reportStyles holds the styles of the terminal report.
type reportStyles struct {
	header    lipgloss.Style
	rewritten lipgloss.Style
	unchanged lipgloss.Style
	failed    lipgloss.Style
	warning   lipgloss.Style
	summary   lipgloss.Style
}

func newReportStyles(r *lipgloss.Renderer) reportStyles {
	return reportStyles{
		header:    r.NewStyle().Bold(true).Padding(0, 1),
		rewritten: r.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1),
		unchanged: r.NewStyle().Faint(true).Padding(0, 1),
		failed:    r.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1),
		warning:   r.NewStyle().Foreground(lipgloss.Color("11")),
		summary:   r.NewStyle().Bold(true),
	}
}

// renderReport writes the per-file outcome of a run.
//
// On a terminal the files are laid out as a styled table. Otherwise every
// file is one tab-separated line: status, path, detail.
func renderReport(w io.Writer, s *migrate.Summary, terminal bool) {
	if terminal {
		renderTable(w, s)
	} else {
		renderPlain(w, s)
	}
}

func renderPlain(w io.Writer, s *migrate.Summary) {
	for _, fr := range s.Files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", status(fr), fr.Path, detail(fr))
		if fr.Result != nil {
			for _, warn := range fr.Result.Warnings {
				fmt.Fprintf(w, "warning\t%s\t%s\n", fr.Path, warn)
			}
		}
	}
	fmt.Fprintln(w, summaryLine(s))
}

func renderTable(w io.Writer, s *migrate.Summary) {
	r := lipgloss.NewRenderer(w)
	st := newReportStyles(r)

	rows := make([][]string, 0, len(s.Files))
	for _, fr := range s.Files {
		sites, warnings := "", ""
		if fr.Result != nil {
			sites = strconv.Itoa(fr.Result.Sites)
			warnings = strconv.Itoa(len(fr.Result.Warnings))
		}
		rows = append(rows, []string{status(fr), fr.Path, sites, warnings, detail(fr)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("STATUS", "FILE", "SITES", "WARNINGS", "DETAIL").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			switch rows[row][0] {
			case string(migrate.StatusRewritten):
				return st.rewritten
			case string(migrate.StatusFailed):
				return st.failed
			}
			return st.unchanged
		})
	fmt.Fprintln(w, t.Render())

	for _, fr := range s.Files {
		if fr.Result == nil {
			continue
		}
		for _, warn := range fr.Result.Warnings {
			fmt.Fprintln(w, st.warning.Render("warning: "+fr.Path+": "+warn.String()))
		}
	}
	fmt.Fprintln(w, st.summary.Render(summaryLine(s)))
}

func status(fr migrate.FileReport) string {
	if fr.Err != nil || fr.Result == nil {
		return string(migrate.StatusFailed)
	}
	return string(fr.Result.Status)
}

func detail(fr migrate.FileReport) string {
	switch {
	case fr.Err != nil:
		return fr.Err.Error()
	case fr.Result == nil:
		return ""
	case fr.Result.Status == migrate.StatusUnchanged:
		return fr.Result.Reason
	}
	d := fmt.Sprintf("%d classes, %d sites", fr.Result.Classes, fr.Result.Sites)
	if fr.Result.ImportRemoved {
		d += ", import removed"
	}
	return d
}

func summaryLine(s *migrate.Summary) string {
	return fmt.Sprintf("%d rewritten, %d unchanged, %d failed, %d warnings (run %s, %s)",
		s.Rewritten, s.Unchanged, s.Failed, s.Warnings, s.RunID, s.Duration.Round(1e6))
}
