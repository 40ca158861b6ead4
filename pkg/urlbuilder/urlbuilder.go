// Package urlbuilder builds request URLs from a base URL, route parameters
// and query parameters.
package urlbuilder

import (
	"net/url"
	"strings"

	"github.com/siphon-data/siphon/pkg/errors"
)

// Builder assembles a URL from a raw base, route placeholders of the form
// {name}, and query string parameters. Route parameters are substituted into
// the path, query parameters are appended; query insertion order is not
// significant.
type Builder struct {
	raw    string
	routes map[string]string
	query  url.Values
}

// New creates a Builder for the given base URL
func New(raw string) *Builder {
	return &Builder{
		raw:    raw,
		routes: make(map[string]string),
		query:  url.Values{},
	}
}

// RouteParam registers a value for the {name} placeholder in the path
func (b *Builder) RouteParam(name, value string) *Builder {
	b.routes[name] = value
	return b
}

// QueryString appends a query parameter
func (b *Builder) QueryString(name, value string) *Builder {
	b.query.Add(name, value)
	return b
}

// URL renders the final URL. It fails with a validation error if the base
// cannot be parsed or an unresolved {placeholder} remains in the path.
func (b *Builder) URL() (string, error) {
	raw := b.raw
	for name, value := range b.routes {
		raw = strings.ReplaceAll(raw, "{"+name+"}", url.PathEscape(value))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid url: "+b.raw)
	}
	if strings.Contains(u.Path, "{") {
		return "", errors.New(errors.ErrorTypeValidation, "unresolved route parameter in url: "+raw)
	}

	if len(b.query) > 0 {
		q := u.Query()
		for name, values := range b.query {
			for _, v := range values {
				q.Add(name, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
