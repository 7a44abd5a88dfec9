package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// Form is a <form> element of the page.
type Form struct {
	Key    string
	Action string
	Method string
	node   *html.Node
}

// Page is a parsed HTML document. Mutations made through widget elements
// and reads made through Render or FormValues are serialised.
type Page struct {
	mu          sync.RWMutex
	root        *html.Node
	forms       []Form
	labelPolicy *bluemonday.Policy
}

// PageOption customises a Page.
type PageOption func(*Page)

// WithLabelPolicy filters option labels through policy before they are
// written. Without it labels are written verbatim as text.
func WithLabelPolicy(policy *bluemonday.Policy) PageOption {
	return func(p *Page) {
		p.labelPolicy = policy
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...PageOption) (*Page, error) {
	if r == nil {
		return nil, errors.New("dom: missing reader")
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return NewPage(root, opts...), nil
}

// ParseString reads an HTML document from a string.
func ParseString(doc string, opts ...PageOption) (*Page, error) {
	return Parse(strings.NewReader(doc), opts...)
}

// NewPage wraps an already parsed document.
func NewPage(root *html.Node, opts ...PageOption) *Page {
	p := &Page{root: root}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.indexForms()
	return p
}

func (p *Page) indexForms() {
	if p.root == nil {
		return
	}
	nodes := htmlquery.Find(p.root, "//form")
	p.forms = make([]Form, 0, len(nodes))
	for idx, node := range nodes {
		key := strings.TrimSpace(htmlquery.SelectAttr(node, "id"))
		if key == "" {
			key = strings.TrimSpace(htmlquery.SelectAttr(node, "name"))
		}
		if key == "" {
			key = "form-" + strconv.Itoa(idx+1)
		}
		method := strings.ToUpper(strings.TrimSpace(htmlquery.SelectAttr(node, "method")))
		if method == "" {
			method = "GET"
		}
		p.forms = append(p.forms, Form{
			Key:    key,
			Action: strings.TrimSpace(htmlquery.SelectAttr(node, "action")),
			Method: method,
			node:   node,
		})
	}
}

// Forms returns the forms of the page in document order.
func (p *Page) Forms() []Form {
	return append([]Form(nil), p.forms...)
}

// Form returns the form registered under key.
func (p *Page) Form(key string) (Form, bool) {
	for _, form := range p.forms {
		if form.Key == key {
			return form, true
		}
	}
	return Form{}, false
}

// Widgets scans the page for lazy selects and binds each one to its node.
func (p *Page) Widgets(attrs Attributes) ([]*model.Widget, error) {
	if p.root == nil {
		return nil, nil
	}
	attrs = attrs.withDefaults()
	expr := fmt.Sprintf("//select[@%s]", attrs.Source)
	nodes, err := htmlquery.QueryAll(p.root, expr)
	if err != nil {
		return nil, fmt.Errorf("dom: query widgets: %w", err)
	}

	widgets := make([]*model.Widget, 0, len(nodes))
	for _, node := range nodes {
		id := htmlquery.SelectAttr(node, "id")
		name := htmlquery.SelectAttr(node, "name")
		w := &model.Widget{
			ID:             id,
			Name:           name,
			SourceID:       strings.TrimSpace(htmlquery.SelectAttr(node, attrs.Source)),
			PriorValue:     htmlquery.SelectAttr(node, attrs.Value),
			AllowsMultiple: hasAttr(node, attrs.Multiple),
			SelectedMarker: strings.TrimSpace(htmlquery.SelectAttr(node, attrs.Marker)),
			FormKey:        p.ownerKey(node),
		}
		w.Element = &selectElement{page: p, node: node}
		w.Options = existingLazyOptions(node, w.Marker())
		widgets = append(widgets, w)
	}
	return widgets, nil
}

// ownerKey resolves the form attribute first, then the nearest ancestor.
// A form attribute naming no form on the page leaves the select unowned.
func (p *Page) ownerKey(node *html.Node) string {
	if ref := strings.TrimSpace(htmlquery.SelectAttr(node, "form")); ref != "" {
		for _, form := range p.forms {
			if htmlquery.SelectAttr(form.node, "id") == ref {
				return form.Key
			}
		}
		return ""
	}
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type != html.ElementNode || parent.Data != "form" {
			continue
		}
		for _, form := range p.forms {
			if form.node == parent {
				return form.Key
			}
		}
	}
	return ""
}

// Render writes the document.
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.root == nil {
		return nil
	}
	if err := html.Render(w, p.root); err != nil {
		return fmt.Errorf("dom: render document: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (p *Page) String() string {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

func hasAttr(node *html.Node, name string) bool {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return true
		}
	}
	return false
}
