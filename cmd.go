package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var cmds = make([]commandFunc, 0)

type commandFunc func(ctx context.Context, a *app) *cobra.Command

func registerCommand(cmd commandFunc) {
	cmds = append(cmds, cmd)
}

// app carries configuration and I/O for every command. cache and source
// are normally built from cfg; tests set them directly.
type app struct {
	cfg    config
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	exit   func(code int)

	cache  cache
	source source

	closers []func() error
}

func newApp(cfg config) *app {
	return &app{
		cfg:    cfg,
		out:    os.Stdout,
		errOut: os.Stderr,
		in:     os.Stdin,
		exit:   os.Exit,
	}
}

// release runs the registered closers, newest first.
func (a *app) release() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	a.closers = nil
}

// fail releases open resources first; deferred calls do not run past
// os.Exit.
func (a *app) fail(msg string, err error) {
	a.release()
	fmt.Fprintln(a.errOut, msg, err)
	a.exit(1)
}

func (a *app) logger() *log.Logger {
	return a.cfg.logger(a.errOut)
}

// open builds the store and loader for one run. The cache is closed by
// release.
func (a *app) open(ctx context.Context) (*store, *loader, error) {
	if err := a.cfg.validate(); err != nil {
		return nil, nil, err
	}

	c := a.cache
	if c == nil {
		opened, closeCache, err := a.cfg.openCache(ctx)
		if err != nil {
			return nil, nil, err
		}

		c = opened
		a.closers = append(a.closers, closeCache)
	} else if closer, ok := c.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	src := a.source
	if src == nil {
		src = spinningSource{newHTTPSource(nil, a.cfg.Source), a.errOut}
	}

	l := &loader{
		cache:  c,
		source: src,
		limit:  a.cfg.Limit,
		log:    a.logger(),
	}

	return newStore(c), l, nil
}

// loaded opens the store and populates it before returning. It reports
// false after printing the failure.
func (a *app) loaded(ctx context.Context) (*store, bool) {
	s, l, err := a.open(ctx)
	if err != nil {
		a.fail("Error opening cache:", err)
		return nil, false
	}

	snap, err := l.load(ctx)
	if err != nil {
		a.fail("Error loading posts:", err)
		return nil, false
	}

	if err := s.apply(ctx, snap); err != nil {
		a.fail("Error saving posts:", err)
		return nil, false
	}

	return s, true
}

func newRootCommand(ctx context.Context, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "posts",
		Short: "Edit a locally cached list of posts",
		Long:  "Fetch posts from a remote source once, cache them locally and edit them offline",
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.Source, "source", a.cfg.Source, "remote collection endpoint")
	flags.IntVar(&a.cfg.Limit, "limit", a.cfg.Limit, "maximum number of posts to fetch")
	flags.StringVar(&a.cfg.Cache, "cache", a.cfg.Cache, "cache backend: file, sqlite or memory")
	flags.StringVar(&a.cfg.CacheDir, "cache-dir", a.cfg.CacheDir, "directory holding the cache")
	flags.StringVar(&a.cfg.Key, "key", a.cfg.Key, "name of the cache slot")
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", a.cfg.Verbose, "log cache and fetch activity")

	for _, command := range cmds {
		cmd := command(ctx, a)
		rootCmd.AddCommand(cmd)
	}

	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	rootCmd.SetIn(a.in)

	return rootCmd
}

func executeCommand(ctx context.Context, a *app) {
	if err := newRootCommand(ctx, a).ExecuteContext(ctx); err != nil {
		a.exit(1)
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}

	return id, nil
}

func list(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Example: "posts list | posts ls",
		Short:   "List cached posts, fetching them on first use",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			s, ok := a.loaded(ctx)
			if !ok {
				return
			}

			defer a.release()

			render(a.out, s.list())
		},
	}

	return cmd
}

func show(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Example: "posts show <id>",
		Short:   "Print a single post",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				a.fail("Error parsing id:", err)
				return
			}

			s, ok := a.loaded(ctx)
			if !ok {
				return
			}

			defer a.release()

			e, found := s.get(id)
			if !found {
				fmt.Fprintf(a.out, "Post #%d not found\n", id)
				return
			}

			fmt.Fprint(a.out, e.String())
		},
	}

	return cmd
}

func add(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"a"},
		Example: `posts add --title "Hello" --body "World"`,
		Short:   "Add a new post",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")
			body, _ := cmd.Flags().GetString("body")

			if err := validate(title, body); err != nil {
				a.fail("Error adding post:", err)
				return
			}

			s, ok := a.loaded(ctx)
			if !ok {
				return
			}

			defer a.release()

			created, err := s.add(ctx, title, body)
			if err != nil {
				a.fail("Error adding post:", err)
				return
			}

			fmt.Fprintf(a.out, "Added post #%d\n", created.ID)
		},
	}

	cmd.Flags().String("title", "", "post title")
	cmd.Flags().String("body", "", "post body")

	return cmd
}

func edit(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit",
		Aliases: []string{"e"},
		Example: `posts edit <id> --title "New title"`,
		Short:   "Change the title or body of a post",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				a.fail("Error parsing id:", err)
				return
			}

			s, ok := a.loaded(ctx)
			if !ok {
				return
			}

			defer a.release()

			current, found := s.get(id)
			if !found {
				fmt.Fprintf(a.out, "Post #%d not found\n", id)
				return
			}

			title, body := current.Title, current.Body
			if cmd.Flags().Changed("title") {
				title, _ = cmd.Flags().GetString("title")
			}
			if cmd.Flags().Changed("body") {
				body, _ = cmd.Flags().GetString("body")
			}

			if _, err := s.update(ctx, id, title, body); err != nil {
				a.fail("Error updating post:", err)
				return
			}

			fmt.Fprintf(a.out, "Updated post #%d\n", id)
		},
	}

	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("body", "", "new body")

	return cmd
}

func remove(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm",
		Aliases: []string{"delete"},
		Example: "posts rm <id>",
		Short:   "Delete a post",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				a.fail("Error parsing id:", err)
				return
			}

			s, ok := a.loaded(ctx)
			if !ok {
				return
			}

			defer a.release()

			removed, err := s.remove(ctx, id)
			if err != nil {
				a.fail("Error deleting post:", err)
				return
			}

			if !removed {
				fmt.Fprintf(a.out, "Post #%d not found\n", id)
				return
			}

			fmt.Fprintf(a.out, "Deleted post #%d\n", id)
		},
	}

	return cmd
}

func reset(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reset",
		Example: "posts reset",
		Short:   "Drop the cache so the next command fetches again",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			s, _, err := a.open(ctx)
			if err != nil {
				a.fail("Error opening cache:", err)
				return
			}

			defer a.release()

			if err := s.reset(ctx); err != nil {
				a.fail("Error resetting cache:", err)
				return
			}

			fmt.Fprintln(a.out, "Cache cleared")
		},
	}

	return cmd
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidEntry)
}

func init() {
	registerCommand(list)
	registerCommand(show)
	registerCommand(add)
	registerCommand(edit)
	registerCommand(remove)
	registerCommand(reset)
}
