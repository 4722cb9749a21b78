package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type (
	Background interface {
		Run()
	}

	Closer interface {
		Close()
	}

	loadResult struct {
		snap snapshot
		err  error
	}

	// backgroundLoader runs the one startup load off the event loop and
	// hands the snapshot back over results.
	backgroundLoader struct {
		ctx     context.Context
		cancel  context.CancelFunc
		loader  *loader
		results chan loadResult
	}
)

func start(backgrounds ...Background) {
	for _, background := range backgrounds {
		go background.Run()
	}
}

func shutdown(backgrounds ...Background) {
	for _, background := range backgrounds {
		if closer, ok := background.(Closer); ok {
			closer.Close()
		}
	}
}

func newBackgroundLoader(ctx context.Context, l *loader) *backgroundLoader {
	ctx, cancel := context.WithCancel(ctx)

	return &backgroundLoader{
		ctx:     ctx,
		cancel:  cancel,
		loader:  l,
		results: make(chan loadResult, 1),
	}
}

func (b *backgroundLoader) Run() {
	snap, err := b.loader.load(b.ctx)
	b.results <- loadResult{snap: snap, err: err}
}

func (b *backgroundLoader) Close() {
	b.cancel()
}

const uiHelp = `commands:
  list              show all posts
  new               start a new post
  edit <id>         start editing a post
  title <text>      set the draft title
  body <text>       set the draft body
  draft             show the current draft
  save              commit the draft
  cancel            discard the draft
  rm <id>           delete a post
  help              show this help
  quit              leave`

// ui is the interactive presenter. Only the event loop calls handle, so
// the store never sees concurrent mutations.
type ui struct {
	out     io.Writer
	store   *store
	session *session
	ready   bool
}

func newUI(out io.Writer, s *store) *ui {
	return &ui{
		out:     out,
		store:   s,
		session: newSession(s),
	}
}

// loaded applies the background load result on the event loop.
func (u *ui) loaded(ctx context.Context, res loadResult) {
	u.ready = true

	if res.err != nil {
		fmt.Fprintln(u.out, "Error loading posts:", res.err)
		return
	}

	if err := u.store.apply(ctx, res.snap); err != nil {
		fmt.Fprintln(u.out, "Error saving posts:", err)
		return
	}

	render(u.out, u.store.list())
}

// handle runs one input line and reports whether the session should end.
func (u *ui) handle(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(u.out, uiHelp)
		return false
	}

	if !u.ready {
		fmt.Fprintln(u.out, "Still loading posts, try again in a moment")
		return false
	}

	switch command {
	case "list", "ls":
		render(u.out, u.store.list())

	case "new":
		u.session.beginNew()
		renderDraft(u.out, u.session)

	case "edit":
		id, err := parseID(rest)
		if err != nil {
			fmt.Fprintln(u.out, err)
			return false
		}

		if !u.session.beginEdit(id) {
			fmt.Fprintf(u.out, "Post #%d not found\n", id)
			return false
		}

		renderDraft(u.out, u.session)

	case "title", "body":
		if err := u.session.setField(command, rest); err != nil {
			fmt.Fprintln(u.out, err)
		}

	case "draft":
		renderDraft(u.out, u.session)

	case "save":
		saved, ok, err := u.session.commit(ctx)
		switch {
		case isInvalid(err):
			fmt.Fprintln(u.out, "Cannot save:", err)
		case err != nil:
			fmt.Fprintln(u.out, "Error saving post:", err)
		case !ok:
			fmt.Fprintln(u.out, "Post no longer exists, draft discarded")
		default:
			fmt.Fprintf(u.out, "Saved post #%d\n", saved.ID)
		}

	case "cancel":
		u.session.discard()

	case "rm", "delete":
		id, err := parseID(rest)
		if err != nil {
			fmt.Fprintln(u.out, err)
			return false
		}

		removed, err := u.store.remove(ctx, id)
		if err != nil {
			fmt.Fprintln(u.out, "Error deleting post:", err)
			return false
		}

		if !removed {
			fmt.Fprintf(u.out, "Post #%d not found\n", id)
			return false
		}

		fmt.Fprintf(u.out, "Deleted post #%d\n", id)

	default:
		fmt.Fprintf(u.out, "Unknown command %q, type help\n", command)
	}

	return false
}

// readLines stops at EOF or once ctx is done. A Scan already blocked on
// the reader returns only when the reader does.
func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// withoutSpinner unwraps a spinning source; the prompt owns the terminal
// in interactive mode.
func withoutSpinner(src source) source {
	if spinning, ok := src.(spinningSource); ok {
		return spinning.source
	}

	return src
}

// runUI is the single event loop: input lines and the startup load are
// both delivered here.
func runUI(ctx context.Context, a *app) error {
	s, l, err := a.open(ctx)
	if err != nil {
		return err
	}

	defer a.release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.source = withoutSpinner(l.source)

	bg := newBackgroundLoader(ctx, l)
	start(bg)
	defer shutdown(bg)

	lines := make(chan string)
	go readLines(ctx, a.in, lines)

	u := newUI(a.out, s)
	fmt.Fprintln(a.out, "Loading posts... (type help for commands)")

	results := bg.results
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-results:
			results = nil
			u.loaded(ctx, res)
		case line, ok := <-lines:
			if !ok || u.handle(ctx, line) {
				return nil
			}
		}
	}
}

func interactive(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"i"},
		Example: "posts ui",
		Short:   "Browse and edit posts interactively",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runUI(ctx, a); err != nil {
				a.fail("Error opening cache:", err)
			}
		},
	}

	return cmd
}

func init() {
	registerCommand(interactive)
}
