package main

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidEntry is returned when a title or body is blank.
	ErrInvalidEntry = errors.New("title and body are required")

	// ErrDuplicateID is returned when a loaded collection repeats an id.
	ErrDuplicateID = errors.New("duplicate post id")
)

type entry struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (e *entry) String() string {
	var buffer bytes.Buffer

	buffer.WriteString("==============================\n")
	buffer.WriteString(fmt.Sprintf("ID: %v\n", e.ID))
	buffer.WriteString(fmt.Sprintf("Title: %v\n", e.Title))
	buffer.WriteString(fmt.Sprintf("Body: %v\n", e.Body))
	buffer.WriteString("==============================\n")

	return buffer.String()
}

func validate(title, body string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return ErrInvalidEntry
	}

	return nil
}

func nextID(entries []entry) (int, error) {
	highest := 0
	for _, e := range entries {
		if e.ID > highest {
			highest = e.ID
		}
	}

	if highest == math.MaxInt {
		return 0, fmt.Errorf("no id left after %d", highest)
	}

	return highest + 1, nil
}

func checkUnique(entries []entry) error {
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}

		seen[e.ID] = struct{}{}
	}

	return nil
}
