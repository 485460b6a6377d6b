package content

import "fmt"

const (
	GalleryField = "galleryUrls"
	FitField     = "imageFit"
	ImageField   = "imageUrl"

	DeleteSlidePrompt = "Видалити це фото з галереї?"
)

// Slides returns the gallery of an item: the explicit gallery when set,
// otherwise a single slide holding the primary image. Never empty.
func Slides(f Fields) []string {
	if g := f[GalleryField].Items(); f[GalleryField].IsList() && len(g) > 0 {
		return g
	}
	return []string{f.Get(ImageField)}
}

// AddSlide appends an empty slot and returns the new gallery and the index
// of the new slot.
func AddSlide(f Fields) ([]string, int) {
	g := append(Slides(f), "")
	return g, len(g) - 1
}

// UpdateSlide replaces the url at index.
func UpdateSlide(f Fields, index int, url string) ([]string, error) {
	g := Slides(f)
	if index < 0 || index >= len(g) {
		return nil, fmt.Errorf("%w: slide %d out of range (len %d)", ErrInvalidValue, index, len(g))
	}
	g[index] = url
	return g, nil
}

// DeleteSlide removes index from the explicit gallery. Deleting from a
// gallery that was never set is an error: the primary image is not a slide
// that can be removed.
func DeleteSlide(f Fields, index int) ([]string, error) {
	g := f[GalleryField].Items()
	if index < 0 || index >= len(g) {
		return nil, fmt.Errorf("%w: slide %d out of range (len %d)", ErrInvalidValue, index, len(g))
	}
	return append(g[:index], g[index+1:]...), nil
}

// Fit returns the display-fit mode, cover when unset.
func Fit(f Fields) string {
	if f.Get(FitField) == FitContain {
		return FitContain
	}
	return FitCover
}

// ToggleFit flips between cover and contain.
func ToggleFit(f Fields) string {
	if Fit(f) == FitContain {
		return FitCover
	}
	return FitContain
}

// Cursor is the current-slide position of a gallery of Len slides.
type Cursor struct {
	Index int
	Len   int
}

// NewCursor clamps index into [0, n).
func NewCursor(index, n int) Cursor {
	if n <= 0 {
		return Cursor{}
	}
	if index < 0 {
		index = 0
	}
	if index >= n {
		index = n - 1
	}
	return Cursor{Index: index, Len: n}
}

func (c Cursor) Next() Cursor {
	if c.Len == 0 {
		return c
	}
	return Cursor{Index: (c.Index + 1) % c.Len, Len: c.Len}
}

func (c Cursor) Prev() Cursor {
	if c.Len == 0 {
		return c
	}
	return Cursor{Index: (c.Index - 1 + c.Len) % c.Len, Len: c.Len}
}
