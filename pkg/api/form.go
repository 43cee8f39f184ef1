package api

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidemarkhq/tidemark-go/pkg/query"
)

// ErrUnknownField is returned by SearchForm.Set for a field the bound
// form does not declare. Raised at set time, not at submit time.
var ErrUnknownField = errors.New("field not declared on form")

// FieldError decorates ErrUnknownField with the offending field name.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q not declared on form", e.Field)
}

func (e *FieldError) Unwrap() error { return ErrUnknownField }

// SearchForm accumulates query parameters for one search request. One
// instance per query; not safe for concurrent use and not meant to be
// reused after submission.
type SearchForm struct {
	form  Form
	data  map[string][]string
	order []string
}

// NewSearchForm binds a builder to a form and pre-populates the form's
// declared field defaults.
func NewSearchForm(form Form) *SearchForm {
	sf := &SearchForm{
		form: form,
		data: make(map[string][]string),
	}
	// Defaults go in sorted by field name so the request URL is stable
	// across runs; Go map iteration order is not.
	names := make([]string, 0, len(form.Fields))
	for name := range form.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if def := form.Fields[name].Default; def != "" {
			sf.set(name, def)
		}
	}
	return sf
}

// Set assigns value to a declared field. An empty value clears the
// field. Fields declared multiple accumulate values across calls;
// others are replaced.
func (sf *SearchForm) Set(field, value string) error {
	spec, ok := sf.form.Fields[field]
	if !ok {
		return &FieldError{Field: field}
	}
	if value == "" {
		sf.clear(field)
		return nil
	}
	if spec.Multiple {
		sf.add(field, value)
	} else {
		sf.set(field, value)
	}
	return nil
}

func (sf *SearchForm) set(field, value string) {
	if _, exists := sf.data[field]; !exists {
		sf.order = append(sf.order, field)
	}
	sf.data[field] = []string{value}
}

func (sf *SearchForm) add(field, value string) {
	if _, exists := sf.data[field]; !exists {
		sf.order = append(sf.order, field)
	}
	sf.data[field] = append(sf.data[field], value)
}

func (sf *SearchForm) clear(field string) {
	if _, exists := sf.data[field]; !exists {
		return
	}
	delete(sf.data, field)
	for i, name := range sf.order {
		if name == field {
			sf.order = append(sf.order[:i], sf.order[i+1:]...)
			break
		}
	}
}

// Ref targets the request at a repository ref. Submitting without one
// is a caller error; the server's behavior is undefined.
func (sf *SearchForm) Ref(ref Ref) error {
	return sf.Set("ref", ref.Ref)
}

// Query sets a raw query string, used verbatim.
func (sf *SearchForm) Query(q string) error {
	return sf.Set("q", q)
}

// QueryPredicates compiles the predicates and sets the result as the
// query.
func (sf *SearchForm) QueryPredicates(preds ...query.Predicate) error {
	return sf.Set("q", query.Compile(preds))
}

// Page sets the 1-based result page.
func (sf *SearchForm) Page(n int) error {
	return sf.Set("page", strconv.Itoa(n))
}

// PageSize sets the number of results per page.
func (sf *SearchForm) PageSize(n int) error {
	return sf.Set("pageSize", strconv.Itoa(n))
}

// Orderings sets the result ordering expression, e.g.
// "[my.article.date desc]".
func (sf *SearchForm) Orderings(o string) error {
	return sf.Set("orderings", o)
}

// URL serializes the accumulated fields onto the form's action URL.
// Fields appear in insertion order with multi-valued fields repeated,
// which url.Values.Encode (sorted keys) cannot express.
func (sf *SearchForm) URL() string {
	if len(sf.order) == 0 {
		return sf.form.Action
	}
	var b strings.Builder
	b.WriteString(sf.form.Action)
	sep := "?"
	if strings.Contains(sf.form.Action, "?") {
		sep = "&"
	}
	for _, field := range sf.order {
		for _, value := range sf.data[field] {
			b.WriteString(sep)
			b.WriteString(url.QueryEscape(field))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
			sep = "&"
		}
	}
	return b.String()
}
