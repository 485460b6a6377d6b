package content

// Store locations. Single documents live in the "content" collection keyed
// by area name.
const (
	ContentCollection    = "content"
	SkillsCollection     = "skills_list"
	ExperienceCollection = "experience"
	ProjectsCollection   = "projects"

	CreatedAtField = "createdAt"
)

// Section binds one page area to its backing document or collection.
type Section struct {
	Name string
	// Collection is the collection name; for document sections the document
	// id is Name inside ContentCollection.
	Collection string
	IsList     bool
	OrderDesc  bool
	Schema     *Schema
	// Defaults are rendered before the first push for documents, and used
	// as the initial field set for new collection items.
	Defaults     Fields
	DeletePrompt string
}

var Hero = &Section{
	Name:       "hero",
	Collection: ContentCollection,
	Schema: NewSchema("hero",
		FieldSpec{"title", KindText},
		FieldSpec{"subtitle", KindText},
		FieldSpec{"description", KindMultiline},
		FieldSpec{"imageUrl", KindMedia},
	),
	Defaults: Fields{
		"title":       String("Full-Stack Developer"),
		"subtitle":    String("Створюю цифрові рішення"),
		"description": String("Я розробляю сучасні веб-додатки, фокусуючись на швидкості, дизайні та зручності користування."),
		"imageUrl":    String(""),
	},
}

var Contact = &Section{
	Name:       "contact",
	Collection: ContentCollection,
	Schema: NewSchema("contact",
		FieldSpec{"email", KindText},
		FieldSpec{"telegram", KindText},
		FieldSpec{"linkedin", KindText},
		FieldSpec{"github", KindText},
		FieldSpec{"copyright", KindText},
	),
	Defaults: Fields{
		"email":     String("email@example.com"),
		"telegram":  String("https://t.me/username"),
		"linkedin":  String("https://linkedin.com/in/username"),
		"github":    String("https://github.com/username"),
		"copyright": String("© 2026 Всі права захищено"),
	},
}

// ProjectsHeader holds the editable title above the project grid.
var ProjectsHeader = &Section{
	Name:       "projects",
	Collection: ContentCollection,
	Schema: NewSchema("projects",
		FieldSpec{"sectionTitle", KindText},
	),
	Defaults: Fields{
		"sectionTitle": String("Мої Проекти"),
	},
}

var Skills = &Section{
	Name:       "skills",
	Collection: SkillsCollection,
	IsList:     true,
	Schema: NewSchema("skills",
		FieldSpec{"title", KindText},
		FieldSpec{"desc", KindMultiline},
		FieldSpec{"iconName", KindIcon},
	),
	Defaults: Fields{
		"title":    String("Нова навичка"),
		"desc":     String("Опис навички..."),
		"iconName": String(DefaultIcon),
	},
	DeletePrompt: "Видалити цю навичку?",
}

var Experience = &Section{
	Name:       "experience",
	Collection: ExperienceCollection,
	IsList:     true,
	OrderDesc:  true,
	Schema: NewSchema("experience",
		FieldSpec{"year", KindText},
		FieldSpec{"title", KindText},
		FieldSpec{"desc", KindMultiline},
	),
	Defaults: Fields{
		"year":  String("2026"),
		"title": String("Нова посада"),
		"desc":  String("Опис обов'язків..."),
	},
	DeletePrompt: "Видалити цей запис?",
}

var Projects = &Section{
	Name:       "projects",
	Collection: ProjectsCollection,
	IsList:     true,
	Schema: NewSchema("projects",
		FieldSpec{"title", KindText},
		FieldSpec{"description", KindMultiline},
		FieldSpec{"tags", KindTags},
		FieldSpec{"imageUrl", KindMedia},
		FieldSpec{"link", KindText},
		FieldSpec{"githubLink", KindText},
		FieldSpec{"problemTitle", KindText},
		FieldSpec{"problem", KindMultiline},
		FieldSpec{"solutionTitle", KindText},
		FieldSpec{"solution", KindMultiline},
		FieldSpec{"featuresTitle", KindText},
		FieldSpec{"features", KindMultiline},
		FieldSpec{GalleryField, KindMediaList},
		FieldSpec{FitField, KindFit},
	),
	Defaults: Fields{
		"title":       String("Новий Проект"),
		"description": String("Опис проекту..."),
		"tags":        List("Tech"),
		"imageUrl":    String(""),
		"link":        String("#"),
		"githubLink":  String("#"),
	},
	DeletePrompt: "Точно видалити?",
}

// DocumentSections and ListSections are the page areas in display order.
var (
	DocumentSections = []*Section{Hero, ProjectsHeader, Contact}
	ListSections     = []*Section{Skills, Experience, Projects}
)

// DocumentSection looks up a single-document area by name.
func DocumentSection(name string) (*Section, bool) {
	for _, s := range DocumentSections {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ListSection looks up a collection section by section or collection name.
func ListSection(name string) (*Section, bool) {
	for _, s := range ListSections {
		if s.Name == name || s.Collection == name {
			return s, true
		}
	}
	return nil, false
}
