package export

import (
	"fmt"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

// URLResolverOptions configures the go-urlkit backed public URL resolver.
type URLResolverOptions struct {
	Manager   *urlkit.RouteManager
	Group     string
	Route     string
	SlugParam string
}

// URLResolver builds audience-facing document URLs from a go-urlkit route
// group, so exported pages link the way the serving site routes them.
type URLResolver struct {
	manager   *urlkit.RouteManager
	group     string
	route     string
	slugParam string
}

// NewURLResolver constructs a resolver over an existing route manager.
func NewURLResolver(opts URLResolverOptions) *URLResolver {
	if opts.SlugParam == "" {
		opts.SlugParam = "slug"
	}
	if opts.Route == "" {
		opts.Route = "document"
	}
	return &URLResolver{
		manager:   opts.Manager,
		group:     strings.TrimSpace(opts.Group),
		route:     strings.TrimSpace(opts.Route),
		slugParam: opts.SlugParam,
	}
}

// NewSiteURLResolver builds a resolver with a single route group rooted at
// baseURL, mapping the document route to /kb/:slug.
func NewSiteURLResolver(baseURL string) *URLResolver {
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "kb",
				BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
				Paths: map[string]string{
					"document": "/kb/:slug",
				},
			},
		},
	})
	return NewURLResolver(URLResolverOptions{Manager: manager, Group: "kb"})
}

// Resolve returns the public URL for a document slug. A nil resolver or
// missing manager resolves to the empty string so export keeps working
// without site routing configured.
func (r *URLResolver) Resolve(slug string) (string, error) {
	if r == nil || r.manager == nil {
		return "", nil
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", nil
	}

	group, err := r.lookupGroup()
	if err != nil || group == nil {
		return "", err
	}
	builder, err := r.safeBuilder(group)
	if err != nil {
		return "", err
	}
	return builder.WithParam(r.slugParam, slug).Build()
}

func (r *URLResolver) lookupGroup() (group *urlkit.Group, err error) {
	if r.group == "" {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("export: route group %q not found", r.group)
		}
	}()
	group = r.manager.Group(r.group)
	return group, err
}

func (r *URLResolver) safeBuilder(group *urlkit.Group) (builder *urlkit.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("export: route %q not found: %v", r.route, rec)
		}
	}()
	builder = group.Builder(r.route)
	return builder, err
}
