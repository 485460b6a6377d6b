package content

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

// Kind describes the shape and editing control of a field.
type Kind int

const (
	KindText Kind = iota
	KindMultiline
	KindTags
	KindMedia
	KindMediaList
	KindFit
	KindIcon
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMultiline:
		return "multiline"
	case KindTags:
		return "tags"
	case KindMedia:
		return "media"
	case KindMediaList:
		return "media_list"
	case KindFit:
		return "fit"
	case KindIcon:
		return "icon"
	}
	return "unknown"
}

// Image fit modes for media references.
const (
	FitCover   = "cover"
	FitContain = "contain"
)

// Icons is the fixed icon set for skill cards. DefaultIcon is rendered for
// anything else.
var Icons = []string{
	"Layout", "Smartphone", "Database", "Code",
	"Terminal", "Cpu", "Globe", "Layers",
	"Zap", "PenTool", "Server", "Box",
}

const DefaultIcon = "Code"

// IconOrDefault maps unknown icon names to DefaultIcon.
func IconOrDefault(name string) string {
	for _, i := range Icons {
		if i == name {
			return name
		}
	}
	return DefaultIcon
}

// MediaPolicy decides whether a media URL may be stored.
type MediaPolicy interface {
	Check(url string) error
}

type FieldSpec struct {
	Name string
	Kind Kind
}

// Schema lists the writable fields of a section, in display order.
type Schema struct {
	Name   string
	Fields []FieldSpec
	index  map[string]FieldSpec
}

func NewSchema(name string, specs ...FieldSpec) *Schema {
	s := &Schema{Name: name, Fields: specs, index: make(map[string]FieldSpec, len(specs))}
	for _, sp := range specs {
		s.index[sp.Name] = sp
	}
	return s
}

func (s *Schema) Spec(field string) (FieldSpec, bool) {
	sp, ok := s.index[field]
	return sp, ok
}

// Validate checks u against the schema and returns the normalised update.
// Tags given as text are split on commas. media may be nil (no host check).
func (s *Schema) Validate(u Update, media MediaPolicy) (Update, error) {
	sp, ok := s.index[u.Field]
	if !ok {
		return Update{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.Name, u.Field)
	}
	v := u.Value
	switch sp.Kind {
	case KindText, KindMultiline:
		if v.IsList() {
			return Update{}, fmt.Errorf("%w: %s expects text", ErrInvalidValue, u.Field)
		}
	case KindTags:
		if !v.IsList() {
			v = List(ParseTags(v.Str())...)
		}
	case KindMedia:
		if v.IsList() {
			return Update{}, fmt.Errorf("%w: %s expects a single url", ErrInvalidValue, u.Field)
		}
		if err := checkMedia(media, v.Str()); err != nil {
			return Update{}, err
		}
	case KindMediaList:
		if !v.IsList() {
			return Update{}, fmt.Errorf("%w: %s expects a list of urls", ErrInvalidValue, u.Field)
		}
		for _, url := range v.Items() {
			if err := checkMedia(media, url); err != nil {
				return Update{}, err
			}
		}
	case KindFit:
		if v.IsList() || (v.Str() != FitCover && v.Str() != FitContain) {
			return Update{}, fmt.Errorf("%w: %s must be %q or %q", ErrInvalidValue, u.Field, FitCover, FitContain)
		}
	case KindIcon:
		if v.IsList() || IconOrDefault(v.Str()) != v.Str() {
			return Update{}, fmt.Errorf("%w: unknown icon %q", ErrInvalidValue, v.Str())
		}
	}
	return Update{Field: u.Field, Value: v}, nil
}

func checkMedia(media MediaPolicy, url string) error {
	// empty slot / no image is always allowed
	if media == nil || url == "" {
		return nil
	}
	if err := media.Check(url); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// ParseTags splits comma separated text into trimmed tags.
func ParseTags(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
