package page

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/retry"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/internal/store/repository"
	"github.com/stretchr/testify/require"
)

func activePage(t *testing.T, repo store.Repository) *Page {
	t.Helper()
	st, err := store.NewLive(context.Background(), repo, nil)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	p := New(st, binder.Options{Writer: binder.NewWriter(retry.Policy{Attempts: 1, Base: time.Millisecond, Max: time.Millisecond})})
	require.NoError(t, p.Activate(context.Background()))
	t.Cleanup(p.Close)
	require.Eventually(t, func() bool {
		for _, b := range p.Collections() {
			if !b.Loaded() {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
	return p
}

func render(t *testing.T, p *Page, edit bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, edit))
	return buf.String()
}

func TestRenderDefaultsAndVariants(t *testing.T) {
	repo := repository.NewMemoryRepo()
	ctx := context.Background()
	_, err := repo.Insert(ctx, content.SkillsCollection, 1, content.Fields{
		"title": content.String("Go"), "desc": content.String("line one\nline two"), "iconName": content.String("Nope"),
	})
	require.NoError(t, err)
	p := activePage(t, repo)

	view := render(t, p, false)
	require.Contains(t, view, "Full-Stack Developer")
	require.Contains(t, view, "Мої Проекти")
	require.Contains(t, view, "line one<br>line two")
	require.Contains(t, view, "icon-Code")
	require.NotContains(t, view, "<input")
	require.NotContains(t, view, "<textarea")
	require.NotContains(t, view, "data-add")

	edit := render(t, p, true)
	require.Contains(t, edit, `name="title" data-target="content/hero"`)
	require.Contains(t, edit, `data-add="skills_list"`)
	require.Contains(t, edit, "<textarea name=\"desc\"")
	require.Contains(t, edit, "Видалити цю навичку?")
}

func TestRenderShowsPlaceholderWhileLoading(t *testing.T) {
	st, err := store.NewLive(context.Background(), repository.NewMemoryRepo(), nil)
	require.NoError(t, err)
	defer st.Close()
	p := New(st, binder.Options{})

	out := render(t, p, false)
	require.Equal(t, 3, strings.Count(out, `class="loading"`))
}

func TestRenderProjectGallery(t *testing.T) {
	repo := repository.NewMemoryRepo()
	ctx := context.Background()
	id, err := repo.Insert(ctx, content.ProjectsCollection, 1, content.Fields{
		"title":             content.String("Folio"),
		content.GalleryField: content.List("https://res.cloudinary.com/a.png", "https://res.cloudinary.com/b.png", "https://res.cloudinary.com/c.png"),
		content.FitField:     content.String(content.FitContain),
	})
	require.NoError(t, err)
	p := activePage(t, repo)

	var buf bytes.Buffer
	require.NoError(t, p.RenderProject(&buf, id, 0, false))
	out := buf.String()
	require.Contains(t, out, "a.png")
	require.Contains(t, out, "?slide=2")
	require.Contains(t, out, "?slide=1")
	require.Contains(t, out, "1 / 3")
	require.Contains(t, out, "fit-contain")

	buf.Reset()
	require.NoError(t, p.RenderProject(&buf, id, 99, true))
	out = buf.String()
	require.Contains(t, out, "c.png")
	require.Contains(t, out, "3 / 3")
	require.Contains(t, out, "Видалити це фото з галереї?")

	require.ErrorIs(t, p.RenderProject(&buf, "missing", 0, false), ErrNoProject)
}

func TestLookup(t *testing.T) {
	p := activePage(t, repository.NewMemoryRepo())

	d, ok := p.Document("projects")
	require.True(t, ok)
	require.Same(t, p.Header, d)

	c, ok := p.Collection("projects")
	require.True(t, ok)
	require.Same(t, p.Projects, c)
	c, ok = p.Collection("skills_list")
	require.True(t, ok)
	require.Same(t, p.Skills, c)

	_, ok = p.Document("nope")
	require.False(t, ok)
}

func TestSeedWritesMissingDefaultsOnly(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.Set(ctx, store.Doc(content.ContentCollection, "hero"), content.Fields{"title": content.String("Mine")}, false))
	st, err := store.NewLive(ctx, repo, nil)
	require.NoError(t, err)
	defer st.Close()

	created, err := Seed(ctx, st)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"projects", "contact"}, created)

	hero, err := repo.Get(ctx, store.Doc(content.ContentCollection, "hero"))
	require.NoError(t, err)
	require.Equal(t, "Mine", hero.Fields.Get("title"))
	contact, err := repo.Get(ctx, store.Doc(content.ContentCollection, "contact"))
	require.NoError(t, err)
	require.Equal(t, "email@example.com", contact.Fields.Get("email"))

	created, err = Seed(ctx, st)
	require.NoError(t, err)
	require.Empty(t, created)
}
