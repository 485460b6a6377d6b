package page

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/editable"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("page").Funcs(template.FuncMap{
	"field": fieldOf,
	"lines": func(s string) []string { return strings.Split(s, "\n") },
	"inc":   func(i int) int { return i + 1 },
	"dict":  dict,
}).ParseFS(templateFS, "templates/*.html"))

// fieldOf finds a view by name; missing names render empty.
func fieldOf(views []editable.View, name string) editable.View {
	for _, v := range views {
		if v.Name == name {
			return v
		}
	}
	return editable.View{Name: name}
}

func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

type docView struct {
	Area  string
	Views []editable.View
}

type itemView struct {
	ID     string
	Views  []editable.View
	Icon   string
	Tags   []string
	Image  string
	Fit    string
	Slides int
}

type listView struct {
	Name         string
	Collection   string
	Loaded       bool
	DeletePrompt string
	Items        []itemView
}

type pageData struct {
	EditMode   bool
	Icons      []string
	Hero       docView
	Header     docView
	Contact    docView
	Skills     listView
	Experience listView
	Projects   listView
}

type projectData struct {
	EditMode     bool
	Project      itemView
	Slide        content.Cursor
	URL          string
	Prev, Next   int
	Contact      docView
	DeletePrompt string
	SlidePrompt  string
}

func documentView(b *binder.DocumentBinder, editMode bool) docView {
	return docView{Area: b.Section().Name, Views: b.Views(editMode)}
}

func collectionView(b *binder.CollectionBinder, editMode bool) listView {
	s := b.Section()
	lv := listView{Name: s.Name, Collection: s.Collection, Loaded: b.Loaded(), DeletePrompt: s.DeletePrompt}
	for _, it := range b.Items() {
		lv.Items = append(lv.Items, newItemView(b, it, editMode))
	}
	return lv
}

func newItemView(b *binder.CollectionBinder, it content.CollectionItem, editMode bool) itemView {
	return itemView{
		ID:     it.ID,
		Views:  b.Views(it.ID, editMode),
		Icon:   content.IconOrDefault(it.Fields.Get("iconName")),
		Tags:   it.Fields["tags"].Items(),
		Image:  it.Fields.Get(content.ImageField),
		Fit:    content.Fit(it.Fields),
		Slides: len(content.Slides(it.Fields)),
	}
}

// Render writes the whole page. Visitors get the static variant, the
// owner gets inputs carrying field names and item ids.
func (p *Page) Render(w io.Writer, editMode bool) error {
	data := pageData{
		EditMode:   editMode,
		Icons:      content.Icons,
		Hero:       documentView(p.Hero, editMode),
		Header:     documentView(p.Header, editMode),
		Contact:    documentView(p.Contact, editMode),
		Skills:     collectionView(p.Skills, editMode),
		Experience: collectionView(p.Experience, editMode),
		Projects:   collectionView(p.Projects, editMode),
	}
	return templates.ExecuteTemplate(w, "page.html", data)
}

// RenderProject writes the detail view of one project with its gallery
// positioned at slide (clamped into range).
func (p *Page) RenderProject(w io.Writer, id string, slide int, editMode bool) error {
	it, ok := p.Projects.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoProject, id)
	}
	slides := content.Slides(it.Fields)
	cur := content.NewCursor(slide, len(slides))
	data := projectData{
		EditMode:     editMode,
		Project:      newItemView(p.Projects, it, editMode),
		Slide:        cur,
		URL:          slides[cur.Index],
		Prev:         cur.Prev().Index,
		Next:         cur.Next().Index,
		Contact:      documentView(p.Contact, false),
		DeletePrompt: p.Projects.Section().DeletePrompt,
		SlidePrompt:  content.DeleteSlidePrompt,
	}
	return templates.ExecuteTemplate(w, "project.html", data)
}
