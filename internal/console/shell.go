// internal/console/shell.go
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"job-listings/internal/domain"
)

const helpText = `Commands:
  list, reload            reload the current page
  search <text>           search titles (empty text clears the search)
  next, prev              move one page forward or back
  edit <n>                edit row n of the current page
  delete <n>              delete row n of the current page
  new                     start a new job
  set <field> <value>     set a form field (title, company, location,
                          description, salaryFrom, salaryTo, isActive)
  save                    create or update the job in the form
  cancel                  stop editing
  form                    show the form
  help                    show this help
  quit                    exit`

// Shell is the interactive line-oriented front end of the console.
type Shell struct {
	out    io.Writer
	lines  chan string
	done   chan struct{}
	stop   sync.Once
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

// NewShell starts reading lines from in. Reading stops at EOF or once Run
// has returned.
func NewShell(in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	s := &Shell{
		out:    out,
		lines:  make(chan string),
		done:   make(chan struct{}),
		now:    time.Now,
		loc:    time.Local,
		logger: logger.With("component", "shell"),
	}

	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case s.lines <- scanner.Text():
			case <-s.done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Error("reading input failed", "error", err)
		}
	}()

	return s
}

// Confirm asks prompt and waits for an answer. Only y or yes confirms.
func (s *Shell) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N] ", prompt)
	line, ok := s.readLine(ctx)
	if !ok {
		fmt.Fprintln(s.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (s *Shell) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-s.lines:
		return line, ok
	}
}

// Run loads the first page and then executes commands until quit, end of
// input or ctx is done.
func (s *Shell) Run(ctx context.Context, c *Coordinator) error {
	defer c.Close()
	defer s.stop.Do(func() { close(s.done) })

	s.reload(ctx, c)

	for {
		fmt.Fprint(s.out, "> ")
		line, ok := s.readLine(ctx)
		if !ok {
			fmt.Fprintln(s.out)
			return ctx.Err()
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := s.execute(ctx, c, line); quit {
			return nil
		}
	}
}

func (s *Shell) execute(ctx context.Context, c *Coordinator, line string) (quit bool) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "list", "ls", "reload":
		s.reload(ctx, c)
	case "search":
		c.List().SetSearchInput(rest)
		s.report(c.List().Search(ctx))
		renderList(s.out, c.List(), s.now(), s.loc)
	case "next":
		if !c.List().CanNext() {
			fmt.Fprintln(s.out, "Already on the last page.")
			return false
		}
		s.report(c.List().Next(ctx))
		renderList(s.out, c.List(), s.now(), s.loc)
	case "prev":
		if !c.List().CanPrev() {
			fmt.Fprintln(s.out, "Already on the first page.")
			return false
		}
		s.report(c.List().Prev(ctx))
		renderList(s.out, c.List(), s.now(), s.loc)
	case "edit":
		p, err := s.row(c, rest)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return false
		}
		if err := c.List().Edit(p.ID); err != nil {
			fmt.Fprintln(s.out, err)
			return false
		}
		renderForm(s.out, c.Form())
	case "delete", "rm":
		s.delete(ctx, c, rest)
	case "new":
		c.Select(nil)
		renderForm(s.out, c.Form())
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		if field == "" {
			fmt.Fprintln(s.out, "usage: set <field> <value>")
			return false
		}
		if err := c.Form().Set(field, strings.TrimSpace(value)); err != nil {
			fmt.Fprintln(s.out, err)
		}
	case "save":
		s.save(ctx, c)
	case "cancel":
		if !c.Form().CanCancel() {
			fmt.Fprintln(s.out, "Nothing to cancel.")
			return false
		}
		c.Form().Cancel()
		renderForm(s.out, c.Form())
	case "form":
		renderForm(s.out, c.Form())
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type help for the list of commands.\n", verb)
	}
	return false
}

func (s *Shell) reload(ctx context.Context, c *Coordinator) {
	s.report(c.List().Load(ctx))
	renderList(s.out, c.List(), s.now(), s.loc)
}

func (s *Shell) delete(ctx context.Context, c *Coordinator, arg string) {
	p, err := s.row(c, arg)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	deleted, err := c.List().Delete(ctx, p.ID)
	if err != nil {
		fmt.Fprintf(s.out, "Delete failed: %s\n", domain.MessageOf(err))
		return
	}
	if deleted {
		fmt.Fprintln(s.out, "Deleted")
		renderList(s.out, c.List(), s.now(), s.loc)
	}
}

func (s *Shell) save(ctx context.Context, c *Coordinator) {
	err := c.Form().Submit(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Saved")
		renderList(s.out, c.List(), s.now(), s.loc)
	case errors.Is(err, ErrBusy):
		fmt.Fprintln(s.out, err)
	default:
		renderForm(s.out, c.Form())
	}
}

// row resolves a 1-based row number on the current page.
func (s *Shell) row(c *Coordinator, arg string) (domain.JobPosting, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return domain.JobPosting{}, fmt.Errorf("expected a row number, got %q", arg)
	}
	snap := c.List().Snapshot()
	if snap.Data == nil || n < 1 || n > len(snap.Data.Content) {
		return domain.JobPosting{}, fmt.Errorf("no row %d on this page", n)
	}
	return snap.Data.Content[n-1], nil
}

// report logs a failed load; the list renders the error itself.
func (s *Shell) report(err error) {
	if err != nil {
		s.logger.Debug("list load failed", "error", err)
	}
}
