package dom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// HiddenField is an extra name/value pair sent with a form submission, such
// as a CSRF token the page would otherwise carry in a hidden input.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying the provided token.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// SortedHiddenFields normalises and sorts hidden fields for deterministic
// submission. Empty names are dropped; later fields win on collisions.
func SortedHiddenFields(fields ...HiddenField) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	clean := make(map[string]string, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		clean[name] = field.Value
	}
	if len(clean) == 0 {
		return nil
	}
	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}

// FormValues collects the successful controls of the form registered under
// key, followed by hidden fields (which replace controls of the same name).
// An option counts as selected when it carries "selected" or the marker
// attribute declared on its select.
func (p *Page) FormValues(key string, attrs Attributes, hidden ...HiddenField) (url.Values, error) {
	form, ok := p.Form(key)
	if !ok {
		return nil, fmt.Errorf("dom: form %q not found", key)
	}
	attrs = attrs.withDefaults()

	p.mu.RLock()
	defer p.mu.RUnlock()

	values := url.Values{}
	for _, node := range p.formControls(form) {
		if hasAttr(node, "disabled") {
			continue
		}
		name := htmlquery.SelectAttr(node, "name")
		if name == "" {
			continue
		}
		switch node.Data {
		case "input":
			collectInput(values, node, name)
		case "textarea":
			values.Add(name, htmlquery.InnerText(node))
		case "select":
			collectSelect(values, node, name, htmlquery.SelectAttr(node, attrs.Marker))
		}
	}
	for _, field := range SortedHiddenFields(hidden...) {
		values.Set(field.Name, field.Value)
	}
	return values, nil
}

func (p *Page) formControls(form Form) []*html.Node {
	var out []*html.Node
	for _, node := range htmlquery.Find(p.root, "//input|//select|//textarea") {
		if p.ownerKey(node) == form.Key {
			out = append(out, node)
		}
	}
	return out
}

func collectInput(values url.Values, node *html.Node, name string) {
	kind := strings.ToLower(htmlquery.SelectAttr(node, "type"))
	switch kind {
	case "submit", "button", "reset", "file", "image":
		return
	case "checkbox", "radio":
		if !hasAttr(node, "checked") {
			return
		}
		value := htmlquery.SelectAttr(node, "value")
		if value == "" && !hasAttr(node, "value") {
			value = "on"
		}
		values.Add(name, value)
	default:
		values.Add(name, htmlquery.SelectAttr(node, "value"))
	}
}

func collectSelect(values url.Values, node *html.Node, name, marker string) {
	multiple := hasAttr(node, "multiple")
	var (
		first    *html.Node
		selected []*html.Node
	)
	for _, option := range htmlquery.Find(node, ".//option") {
		if first == nil {
			first = option
		}
		if hasAttr(option, "selected") || (marker != "" && hasAttr(option, marker)) {
			selected = append(selected, option)
		}
	}
	if !multiple {
		switch {
		case len(selected) > 0:
			// The last selected option wins for single selects.
			selected = selected[len(selected)-1:]
		case first != nil:
			selected = []*html.Node{first}
		}
	}
	for _, option := range selected {
		values.Add(name, optionValue(option))
	}
}

func optionValue(option *html.Node) string {
	if hasAttr(option, "value") {
		return htmlquery.SelectAttr(option, "value")
	}
	return strings.TrimSpace(htmlquery.InnerText(option))
}

// HTTPSubmitter posts form values to the form action. It satisfies
// gate.Submitter.
type HTTPSubmitter struct {
	Page    *Page
	Attrs   Attributes
	Client  *http.Client
	BaseURL string
	Hidden  []HiddenField
	// Response receives the status of each successful submission.
	Response func(formKey string, resp *http.Response)
}

// Submit implements gate.Submitter.
func (s *HTTPSubmitter) Submit(ctx context.Context, formKey string) error {
	if s == nil || s.Page == nil {
		return fmt.Errorf("dom: submitter has no page")
	}
	form, ok := s.Page.Form(formKey)
	if !ok {
		return fmt.Errorf("dom: form %q not found", formKey)
	}
	values, err := s.Page.FormValues(formKey, s.Attrs, s.Hidden...)
	if err != nil {
		return err
	}
	target, err := s.resolve(form.Action)
	if err != nil {
		return err
	}

	var req *http.Request
	if form.Method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		u, parseErr := url.Parse(target)
		if parseErr != nil {
			return fmt.Errorf("dom: form action: %w", parseErr)
		}
		u.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}
	if err != nil {
		return fmt.Errorf("dom: build submission: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("dom: submit %s: %w", formKey, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("dom: submit %s: unexpected status %s", formKey, resp.Status)
	}
	if s.Response != nil {
		s.Response(formKey, resp)
	}
	return nil
}

func (s *HTTPSubmitter) resolve(action string) (string, error) {
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("dom: form action: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return "", fmt.Errorf("dom: relative form action %q requires a base url", action)
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("dom: base url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
