package dom

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// selectElement writes populated options into a <select> node.
type selectElement struct {
	page *Page
	node *html.Node
}

// ReplaceOptions drops options appended by a previous population and
// appends the new list. Options present in the original markup are kept.
func (e *selectElement) ReplaceOptions(options []model.Option, marker string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()

	for child := e.node.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode && child.Data == "option" && hasAttr(child, LazyOptionAttr) {
			e.node.RemoveChild(child)
		}
		child = next
	}

	for _, option := range options {
		option.Label = e.page.label(option.Label)
		e.node.AppendChild(optionNode(option, marker))
	}
}

func optionNode(option model.Option, marker string) *html.Node {
	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Option,
		Data:     "option",
		Attr: []html.Attribute{
			{Key: "value", Val: option.Value},
			{Key: LazyOptionAttr, Val: ""},
		},
	}
	if option.Selected {
		node.Attr = append(node.Attr, html.Attribute{Key: marker, Val: marker})
	}
	node.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: option.Label,
	})
	return node
}

// existingLazyOptions reads options left by an earlier hydration so a
// re-hydrated page starts from the rendered state.
func existingLazyOptions(node *html.Node, marker string) []model.Option {
	var out []model.Option
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || child.Data != "option" || !hasAttr(child, LazyOptionAttr) {
			continue
		}
		out = append(out, model.Option{
			Value:       htmlquery.SelectAttr(child, "value"),
			Label:       htmlquery.InnerText(child),
			Selected:    hasAttr(child, marker),
			Placeholder: htmlquery.SelectAttr(child, "value") == "" && htmlquery.InnerText(child) == model.PlaceholderLabel,
		})
	}
	return out
}

// label applies the page label policy, if any. The renderer escapes the
// text node, so a label without a policy is shown exactly as received.
func (p *Page) label(raw string) string {
	if p.labelPolicy == nil {
		return raw
	}
	return html.UnescapeString(p.labelPolicy.Sanitize(raw))
}
