// Package svg writes snapshot values into the placeholder elements of SVG documents.
package svg

import (
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/naka-gawa/profile-banner/internal/domain"
	"github.com/naka-gawa/profile-banner/internal/fsutil"
)

// DotsSuffix is appended to a value element id to get its padding element id.
const DotsSuffix = "_dots"

const declaration = `version="1.0" encoding="UTF-8"`

// Dots returns the padding text for pad missing columns.
// Widths 0 to 2 use fixed strings; wider gaps are a run of periods framed by spaces.
func Dots(pad int) string {
	switch {
	case pad <= 0:
		return ""
	case pad == 1:
		return " "
	case pad == 2:
		return ". "
	default:
		return " " + strings.Repeat(".", pad) + " "
	}
}

func findByID(el *etree.Element, id string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.SelectAttrValue("id", "") == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// SetValue replaces the text of the element with the given id. A missing
// element is not an error. The element takes over its parent's x attribute
// so renderers do not shift it when the text length changes.
func SetValue(doc *etree.Document, id, text string) {
	el := findByID(doc.Root(), id)
	if el == nil {
		return
	}
	el.SetText(text)
	if parent := el.Parent(); parent != nil {
		if x := parent.SelectAttrValue("x", ""); x != "" {
			el.CreateAttr("x", x)
		}
	}
}

// SetFormattedValue writes the formatted value and pads its companion dots
// element so that value and dots together span width columns.
func SetFormattedValue(doc *etree.Document, id string, value domain.Value, width int) {
	formatted := value.Format()
	SetValue(doc, id, formatted)
	pad := width - utf8.RuneCountInString(formatted)
	if pad < 0 {
		pad = 0
	}
	SetValue(doc, id+DotsSuffix, Dots(pad))
}

// Apply writes every field whose counter is present in the snapshot.
// Fields with a missing counter keep their current text.
func Apply(doc *etree.Document, snapshot *domain.Snapshot, fields []domain.Field, logger logrus.FieldLogger) {
	for _, field := range fields {
		value, ok := snapshot.Get(field.Counter)
		if !ok {
			logger.WithFields(logrus.Fields{"id": field.ID, "counter": field.Counter}).Debug("counter not in snapshot, placeholder left unchanged")
			continue
		}
		if field.Plain {
			SetValue(doc, field.ID, value.Raw())
			continue
		}
		SetFormattedValue(doc, field.ID, value, field.Width)
	}
}

// ensureDeclaration makes the document start with an XML declaration naming UTF-8.
func ensureDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = declaration
			return
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", declaration))
	doc.InsertChildAt(1, etree.NewCharData("\n"))
}

// Filler reads, fills and writes back SVG documents.
type Filler struct {
	fs     afero.Fs
	logger logrus.FieldLogger
}

// NewFiller creates a Filler working on fs.
func NewFiller(fs afero.Fs, logger logrus.FieldLogger) *Filler {
	return &Filler{fs: fs, logger: logger}
}

// Fill rewrites the document at path with the snapshot values.
// The whole document is parsed, updated in memory and then swapped in for the
// original, so a failed write leaves the previous document in place.
func (f *Filler) Fill(path string, snapshot *domain.Snapshot, fields []domain.Field) error {
	info, err := f.fs.Stat(path)
	if err != nil {
		return &domain.DocumentError{Path: path, Err: err}
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return &domain.DocumentError{Path: path, Err: err}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return &domain.DocumentError{Path: path, Err: err}
	}
	if doc.Root() == nil {
		return &domain.DocumentError{Path: path, Err: errors.New("no root element")}
	}

	Apply(doc, snapshot, fields, f.logger.WithField("document", path))
	ensureDeclaration(doc)

	out, err := doc.WriteToBytes()
	if err != nil {
		return &domain.DocumentError{Path: path, Err: err}
	}
	if err := fsutil.WriteFileAtomic(f.fs, path, out, info.Mode().Perm()); err != nil {
		return &domain.DocumentError{Path: path, Err: err}
	}
	return nil
}

// FillAll fills every document in paths. A document that cannot be read,
// parsed or written is skipped with a warning. It returns how many documents were written.
func (f *Filler) FillAll(paths []string, snapshot *domain.Snapshot, fields []domain.Field) int {
	written := 0
	for _, path := range paths {
		log := f.logger.WithField("document", path)
		if err := f.Fill(path, snapshot, fields); err != nil {
			var docErr *domain.DocumentError
			if errors.As(err, &docErr) && errors.Is(docErr.Err, os.ErrNotExist) {
				log.Warn("document not found, skipping")
			} else {
				log.WithError(err).Warn("failed to update document, skipping")
			}
			continue
		}
		log.Info("document updated")
		written++
	}
	return written
}
