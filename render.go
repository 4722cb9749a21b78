package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	idColor    = color.New(color.Faint)
)

func render(w io.Writer, entries []entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No posts.")
		return
	}

	for _, e := range entries {
		renderEntry(w, e)
	}
}

func renderEntry(w io.Writer, e entry) {
	idColor.Fprintf(w, "#%d ", e.ID)
	titleColor.Fprintln(w, e.Title)
	fmt.Fprintf(w, "%s\n\n", e.Body)
}

func renderDraft(w io.Writer, s *session) {
	switch s.mode {
	case modeEditing:
		fmt.Fprintf(w, "editing #%d\n  title: %s\n  body: %s\n", s.edit.ID, s.edit.Title, s.edit.Body)
	case modeComposing:
		fmt.Fprintf(w, "new post\n  title: %s\n  body: %s\n", s.compose.Title, s.compose.Body)
	default:
		fmt.Fprintln(w, "no draft")
	}
}
