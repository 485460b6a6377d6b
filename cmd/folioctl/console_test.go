package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/identity"
	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/internal/store/repository"
	"github.com/folio-cms/folio/internal/users"
	"github.com/stretchr/testify/require"
)

const (
	settle = 2 * time.Second
	tick   = 5 * time.Millisecond
)

type harness struct {
	t    *testing.T
	c    *console
	out  *bytes.Buffer
	repo *repository.MemoryRepo
	st   *store.Live
	page *page.Page
}

func newHarness(t *testing.T, answers string) *harness {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	st, err := store.NewLive(ctx, repo, nil)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	svc := users.NewService(users.NewMemoryUserRepository())
	_, err = svc.EnsureOwner(ctx, "me@folio.dev", "Me", "pw", "")
	require.NoError(t, err)
	src := identity.NewPasswordSource(ownerAuthenticator(svc))
	gate := identity.NewGate(src)
	t.Cleanup(gate.Close)
	require.NoError(t, gate.Wait(ctx))
	require.NoError(t, src.SignIn(ctx, "me@folio.dev", "pw"))

	p := page.New(st, binder.Options{
		Writer: binder.NewWriter(retry.Policy{Attempts: 1, Base: time.Millisecond, Max: time.Millisecond}),
		Guard:  gate,
	})
	p.SetEditMode(gate.EditMode())
	off := gate.OnChange(func(id *identity.Identity) { p.SetEditMode(id != nil) })
	t.Cleanup(off)
	require.NoError(t, p.Activate(ctx))
	t.Cleanup(p.Close)
	require.Eventually(t, func() bool {
		for _, b := range p.Collections() {
			if !b.Loaded() {
				return false
			}
		}
		return true
	}, settle, tick)

	out := &bytes.Buffer{}
	in := bufio.NewScanner(strings.NewReader(answers))
	return &harness{t: t, c: newConsole(p, gate, in, out), out: out, repo: repo, st: st, page: p}
}

func (h *harness) run(lines ...string) {
	h.t.Helper()
	for _, l := range lines {
		_, err := h.c.exec(context.Background(), l)
		require.NoError(h.t, err, l)
	}
}

func (h *harness) stored(p store.Path) content.Fields {
	s, err := h.repo.Get(context.Background(), p)
	if err != nil {
		return nil
	}
	return s.Fields
}

func TestFocusTypeBlurSaves(t *testing.T) {
	h := newHarness(t, "")
	h.run("focus hero.title", "type Go Developer", "blur")
	require.Contains(t, h.out.String(), `saved hero.title: "Go Developer"`)
	require.Eventually(t, func() bool {
		return h.stored(store.Doc(content.ContentCollection, "hero")).Get("title") == "Go Developer"
	}, settle, tick)
}

func TestRemotePushKeepsBuffer(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	h.run("focus hero.subtitle", "type draft")

	require.NoError(t, h.st.Write(ctx, store.Doc(content.ContentCollection, "hero"), content.Fields{"subtitle": content.String("remote")}, true))
	require.Eventually(t, func() bool { return h.page.Hero.Snapshot().Get("subtitle") == "remote" }, settle, tick)
	require.Equal(t, "draft", h.c.focused.Buffer())

	h.run("blur")
	require.Eventually(t, func() bool {
		return h.stored(store.Doc(content.ContentCollection, "hero")).Get("subtitle") == "draft"
	}, settle, tick)
}

func TestFocusMovesAndCommitsPrevious(t *testing.T) {
	h := newHarness(t, "")
	h.run("focus contact.email", "type a@b.c", "focus contact.github")
	require.Contains(t, h.out.String(), `saved contact.email: "a@b.c"`)
	require.Equal(t, "github", h.c.focused.Name)
}

func TestAddAndConfirmedDelete(t *testing.T) {
	h := newHarness(t, "n\ny\n")
	h.run("add skills")
	var id string
	require.Eventually(t, func() bool {
		items := h.page.Skills.Items()
		if len(items) != 1 {
			return false
		}
		id = items[0].ID
		return true
	}, settle, tick)

	h.run("focus skills.desc "+id, `type one\ntwo`, "blur")
	require.Eventually(t, func() bool {
		return h.stored(store.Doc(content.SkillsCollection, id)).Get("desc") == "one\ntwo"
	}, settle, tick)

	h.run("rm skills " + id)
	require.Contains(t, h.out.String(), "Видалити цю навичку? [y/N] cancelled")
	require.NotNil(t, h.stored(store.Doc(content.SkillsCollection, id)))

	h.run("rm skills " + id)
	require.Contains(t, h.out.String(), "deleted "+id)
	require.Nil(t, h.stored(store.Doc(content.SkillsCollection, id)))
}

func TestRejectedBlurIsReported(t *testing.T) {
	h := newHarness(t, "")
	h.run("add skills")
	var id string
	require.Eventually(t, func() bool {
		items := h.page.Skills.Items()
		if len(items) != 1 {
			return false
		}
		id = items[0].ID
		return true
	}, settle, tick)

	h.run("focus skills.iconName "+id, "type Bogus")
	_, err := h.c.exec(context.Background(), "blur")
	require.ErrorIs(t, err, content.ErrInvalidValue)
	require.Contains(t, err.Error(), `kept "Code"`)
	require.NotContains(t, h.out.String(), "saved skills.iconName")
	require.Nil(t, h.c.focused)

	h.out.Reset()
	h.run("show")
	require.Contains(t, h.out.String(), "    iconName: Code\n")
	require.Equal(t, content.DefaultIcon, h.stored(store.Doc(content.SkillsCollection, id)).Get("iconName"))
}

func TestGalleryCommands(t *testing.T) {
	h := newHarness(t, "y\n")
	h.run("add projects")
	var id string
	require.Eventually(t, func() bool {
		items := h.page.Projects.Items()
		if len(items) != 1 {
			return false
		}
		id = items[0].ID
		return true
	}, settle, tick)

	h.run("gallery add "+id, "gallery set "+id+" 1 https://x.test/b.png")
	require.Contains(t, h.out.String(), "added slide 1")
	require.Eventually(t, func() bool {
		it, _ := h.page.Projects.Item(id)
		s := content.Slides(it.Fields)
		return len(s) == 2 && s[1] == "https://x.test/b.png" &&
			len(content.Slides(h.stored(store.Doc(content.ProjectsCollection, id)))) == 2
	}, settle, tick)

	h.out.Reset()
	h.run("slide next " + id)
	require.Equal(t, "2 / 2 https://x.test/b.png\n", h.out.String())

	h.run("fit "+id, "gallery rm "+id+" 0")
	require.Eventually(t, func() bool {
		f := h.stored(store.Doc(content.ProjectsCollection, id))
		s := content.Slides(f)
		return content.Fit(f) == content.FitContain && len(s) == 1 && s[0] == "https://x.test/b.png"
	}, settle, tick)

	require.Eventually(t, func() bool {
		h.out.Reset()
		h.run("show")
		return strings.Contains(h.out.String(), "[projects] 1 items") &&
			strings.Contains(h.out.String(), "gallery: 1 slides, showing 1, fit contain")
	}, settle, tick)
}

func TestLogoutLeavesEditMode(t *testing.T) {
	h := newHarness(t, "")
	h.run("focus hero.title", "type unsaved", "logout")
	require.Nil(t, h.c.focused)

	_, err := h.c.exec(context.Background(), "add skills")
	require.ErrorIs(t, err, binder.ErrReadOnly)
	_, err = h.c.exec(context.Background(), "focus hero.title")
	require.ErrorIs(t, err, binder.ErrReadOnly)

	h.out.Reset()
	h.run("show")
	require.Contains(t, h.out.String(), "title: Full-Stack Developer")
	require.Nil(t, h.stored(store.Doc(content.ContentCollection, "hero")))
}

func TestUsageAndQuit(t *testing.T) {
	h := newHarness(t, "")
	for _, l := range []string{"help", "nope", "rm skills", "gallery", "slide sideways x"} {
		_, err := h.c.exec(context.Background(), l)
		require.ErrorIs(t, err, errUsage, l)
	}
	quit, err := h.c.exec(context.Background(), "quit")
	require.NoError(t, err)
	require.True(t, quit)

	_, err = h.c.exec(context.Background(), "type x")
	require.Error(t, err)
}

func TestReadPasswordFromPipe(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewScanner(strings.NewReader("s3cret\nshow\n"))
	pw, err := readPassword(in, strings.NewReader(""), &out)
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)
	require.Equal(t, "password: ", out.String())
}
