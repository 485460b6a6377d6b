package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/editable"
	"github.com/folio-cms/folio/internal/identity"
	"github.com/folio-cms/folio/internal/page"
)

const help = `commands:
  show                             print every section
  focus <section>.<field> [id]     start editing a field
  type <text>                      replace the edit buffer (\n for a new line)
  blur                             save the focused field
  add <section>                    add an item with defaults
  rm <section> <id>                delete an item
  slide next|prev <id>             move through a project gallery
  gallery add <id>                 append an empty slide
  gallery set <id> <index> <url>   set a slide
  gallery rm <id> <index>          delete a slide
  fit <id>                         toggle cover/contain
  logout                           sign out and leave edit mode
  quit`

var errUsage = errors.New("usage")

// console is a line-oriented editor over one page.
type console struct {
	page *page.Page
	gate *identity.Gate
	in   *bufio.Scanner
	out  io.Writer

	focused *editable.Field
	label   string
}

func newConsole(p *page.Page, g *identity.Gate, in *bufio.Scanner, out io.Writer) *console {
	return &console{page: p, gate: g, in: in, out: out}
}

func (c *console) run(ctx context.Context) error {
	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		quit, err := c.exec(ctx, c.in.Text())
		if errors.Is(err, errUsage) {
			fmt.Fprintln(c.out, help)
		} else if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// Confirm asks on the console and blocks for the answer.
func (c *console) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	if !c.in.Scan() {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return a == "y" || a == "yes" || a == "так"
}

func (c *console) exec(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	args := strings.Fields(rest)
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		return false, errUsage
	case "show":
		c.show()
		return false, nil
	case "focus":
		return false, c.focus(ctx, args)
	case "type":
		if c.focused == nil {
			return false, errors.New("no field is focused")
		}
		c.focused.Input(strings.ReplaceAll(rest, `\n`, "\n"))
		return false, nil
	case "blur":
		return false, c.blur(ctx)
	case "add":
		if len(args) != 1 {
			return false, errUsage
		}
		b, err := c.collection(args[0])
		if err != nil {
			return false, err
		}
		id, err := b.Add(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "added %s\n", id)
		return false, nil
	case "rm":
		if len(args) != 2 {
			return false, errUsage
		}
		b, err := c.collection(args[0])
		if err != nil {
			return false, err
		}
		err = b.Delete(ctx, args[1], c)
		if errors.Is(err, binder.ErrNotConfirmed) {
			fmt.Fprintln(c.out, "cancelled")
			return false, nil
		}
		if err == nil {
			fmt.Fprintf(c.out, "deleted %s\n", args[1])
		}
		return false, err
	case "slide":
		return false, c.slide(args)
	case "gallery":
		return false, c.gallery(ctx, args)
	case "fit":
		if len(args) != 1 {
			return false, errUsage
		}
		return false, wait(ctx, c.page.Projects.ToggleFit(ctx, args[0]))
	case "logout":
		c.focused = nil
		if err := c.gate.SignOut(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, "signed out; edit mode is off")
		return false, nil
	}
	return false, errUsage
}

func (c *console) collection(name string) (*binder.CollectionBinder, error) {
	b, ok := c.page.Collection(name)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return b, nil
}

// focus blurs the previous field first, like moving between inputs.
func (c *console) focus(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	section, field, ok := strings.Cut(args[0], ".")
	if !ok {
		return errUsage
	}
	var (
		ed  *editable.Field
		err error
	)
	if len(args) == 2 {
		b, cerr := c.collection(section)
		if cerr != nil {
			return cerr
		}
		ed, err = b.Editor(args[1], field)
	} else {
		b, ok := c.page.Document(section)
		if !ok {
			return fmt.Errorf("unknown content area %q", section)
		}
		ed, err = b.Editor(field)
	}
	if err != nil {
		return err
	}
	if c.focused != nil && c.focused != ed {
		if err := c.blur(ctx); err != nil {
			return err
		}
	}
	if !ed.Focus() {
		return binder.ErrReadOnly
	}
	c.focused, c.label = ed, strings.Join(args, " ")
	fmt.Fprintf(c.out, "editing %s: %q\n", c.label, ed.Buffer())
	return nil
}

// blur commits the focused field and waits for the save. A rejected value
// leaves the field showing what the page holds.
func (c *console) blur(ctx context.Context) error {
	if c.focused == nil {
		return errors.New("no field is focused")
	}
	ed, label := c.focused, c.label
	c.focused, c.label = nil, ""
	v, done, ok := ed.Blur()
	if !ok {
		return nil
	}
	if err := wait(ctx, done); err != nil {
		return fmt.Errorf("save %s: %w (kept %q)", label, err, ed.Value())
	}
	fmt.Fprintf(c.out, "saved %s: %q\n", label, v)
	return nil
}

func (c *console) slide(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	var (
		cur content.Cursor
		ok  bool
	)
	switch args[0] {
	case "next":
		cur, ok = c.page.Projects.NextSlide(args[1])
	case "prev":
		cur, ok = c.page.Projects.PrevSlide(args[1])
	default:
		return errUsage
	}
	if !ok {
		return fmt.Errorf("unknown project %q", args[1])
	}
	it, _ := c.page.Projects.Item(args[1])
	fmt.Fprintf(c.out, "%d / %d %s\n", cur.Index+1, cur.Len, content.Slides(it.Fields)[cur.Index])
	return nil
}

func (c *console) gallery(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	b := c.page.Projects
	id := args[1]
	switch {
	case args[0] == "add" && len(args) == 2:
		idx, done := b.AddSlide(ctx, id)
		if err := wait(ctx, done); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "added slide %d\n", idx)
		return nil
	case args[0] == "set" && len(args) == 4:
		idx, err := strconv.Atoi(args[2])
		if err != nil {
			return errUsage
		}
		return wait(ctx, b.UpdateSlide(ctx, id, idx, args[3]))
	case args[0] == "rm" && len(args) == 3:
		idx, err := strconv.Atoi(args[2])
		if err != nil {
			return errUsage
		}
		err = wait(ctx, b.DeleteSlide(ctx, id, idx, c))
		if errors.Is(err, binder.ErrNotConfirmed) {
			fmt.Fprintln(c.out, "cancelled")
			return nil
		}
		return err
	}
	return errUsage
}

func wait(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *console) show() {
	for _, b := range c.page.Documents() {
		fmt.Fprintf(c.out, "[%s]\n", b.Section().Name)
		for _, v := range b.Views(true) {
			printView(c.out, "  ", v)
		}
	}
	for _, b := range c.page.Collections() {
		s := b.Section()
		if !b.Loaded() {
			fmt.Fprintf(c.out, "[%s] loading...\n", s.Collection)
			continue
		}
		items := b.Items()
		fmt.Fprintf(c.out, "[%s] %d items\n", s.Collection, len(items))
		for _, it := range items {
			fmt.Fprintf(c.out, "  - %s\n", it.ID)
			for _, v := range b.Views(it.ID, true) {
				printView(c.out, "    ", v)
			}
			if _, ok := s.Schema.Spec(content.GalleryField); ok {
				cur, _ := b.Slide(it.ID)
				fmt.Fprintf(c.out, "    gallery: %d slides, showing %d, fit %s\n", cur.Len, cur.Index+1, content.Fit(it.Fields))
			}
		}
	}
}

func printView(w io.Writer, indent string, v editable.View) {
	mark := ""
	if v.Focused {
		mark = " *"
	}
	fmt.Fprintf(w, "%s%s%s: %s\n", indent, v.Name, mark, strings.ReplaceAll(v.Value, "\n", `\n`))
}
