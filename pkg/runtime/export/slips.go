package export

import (
	"errors"
	"fmt"
	"iter"

	"github.com/beevik/etree"
	"github.com/mitlibraries/ccslips/pkg/models/domain"
)

// EmptyDocument is rendered when there are no slips at all.
const EmptyDocument = "<html><p>No credit card orders on this date</p></html>"

var ErrNoTemplateRoot = errors.New("slip template has no root element")

// Renderer fills one copy of the slip template per slip. Template cells are
// td elements whose class attribute names a slip field.
type Renderer struct {
	template *etree.Element
}

func NewRenderer(template []byte) (*Renderer, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(template); err != nil {
		return nil, fmt.Errorf("failed to parse slip template: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrNoTemplateRoot
	}
	return &Renderer{template: root.Copy()}, nil
}

// Render consumes slips in order and returns the document together with
// the number of slips rendered. An error from the sequence aborts rendering.
func (r *Renderer) Render(slips iter.Seq2[domain.Slip, error]) (string, int, error) {
	doc := etree.NewDocument()
	html := doc.CreateElement("html")

	count := 0
	for slip, err := range slips {
		if err != nil {
			return "", count, err
		}
		html.AddChild(r.populate(slip))
		count++
	}

	if count == 0 {
		return EmptyDocument, 0, nil
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", count, fmt.Errorf("failed to serialize slips document: %w", err)
	}
	return out, count, nil
}

func (r *Renderer) RenderSlips(slips []domain.Slip) (string, error) {
	out, _, err := r.Render(func(yield func(domain.Slip, error) bool) {
		for _, slip := range slips {
			if !yield(slip, nil) {
				return
			}
		}
	})
	return out, err
}

func (r *Renderer) populate(slip domain.Slip) *etree.Element {
	fragment := r.template.Copy()
	for _, field := range slip.Fields() {
		path := fmt.Sprintf(".//td[@class='%s']", field.Name)
		for _, cell := range fragment.FindElements(path) {
			cell.SetText(field.Value)
		}
	}
	return fragment
}
