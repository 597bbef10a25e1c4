package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vango-dev/pathway/internal/errors"
	"github.com/vango-dev/pathway/pkg/router"
	"github.com/vango-dev/pathway/pkg/search"
)

// FileName is the default manifest file name.
const FileName = "routes.json"

// Manifest is a declarative route tree.
type Manifest struct {
	Routes []Route `json:"routes"`
}

// Route is one manifest entry.
type Route struct {
	// ID defaults to the id derived from the parent and Path.
	ID string `json:"id,omitempty"`

	// Path is relative to the parent. The entry with id "__root__" or path
	// "/" is the root; when there is none a bare root is added.
	Path string `json:"path"`

	// Parent is the parent's id. Empty means the root.
	Parent string `json:"parent,omitempty"`

	NotFound      bool   `json:"notFound,omitempty"`
	CaseSensitive *bool  `json:"caseSensitive,omitempty"`
	StaleTime     string `json:"staleTime,omitempty"`
	GCMaxAge      string `json:"gcMaxAge,omitempty"`

	Search []SearchField `json:"search,omitempty"`

	// Data is returned by the route's loader as is.
	Data any `json:"data,omitempty"`

	// Redirect sends every navigation to this route elsewhere.
	Redirect string `json:"redirect,omitempty"`

	Meta map[string]any `json:"meta,omitempty"`
}

// SearchField declares one search key of a route.
type SearchField struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`

	// Check is an expr expression over value and search that must yield a
	// bool, e.g. "value > 0 && value <= 100".
	Check string `json:"check,omitempty"`

	Fallback any `json:"fallback,omitempty"`
}

// Parse decodes a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New("E251").Wrap(err).WithDetail(err.Error())
	}
	return &m, nil
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E251").Wrap(err).WithSource(path)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New("E251").Wrap(err).WithSource(path).WithDetail(err.Error())
	}
	return &m, nil
}

// Defs converts the manifest into route definitions, root first.
func (m *Manifest) Defs() ([]*router.RouteDef, error) {
	rootIdx := -1
	for i, r := range m.Routes {
		if r.ID == router.RootRouteID || (r.Path == "/" && r.Parent == "") {
			if rootIdx >= 0 {
				return nil, errors.New("E251").WithDetail("manifest declares more than one root route")
			}
			rootIdx = i
		}
	}

	root := &router.RouteDef{ID: router.RootRouteID}
	defs := []*router.RouteDef{root}
	if rootIdx >= 0 {
		entry := m.Routes[rootIdx]
		entry.Path = ""
		if err := entry.apply(root); err != nil {
			return nil, err
		}
	}

	for i, entry := range m.Routes {
		if i == rootIdx {
			continue
		}
		def := &router.RouteDef{ParentID: entry.Parent}
		if def.ParentID == "" {
			def.ParentID = root.ID
		}
		if err := entry.apply(def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Build decodes the manifest's definitions into a tree.
func (m *Manifest) Build(opts ...router.Option) (*router.Tree, error) {
	defs, err := m.Defs()
	if err != nil {
		return nil, err
	}
	return router.Build(defs, opts...)
}

func (r Route) apply(def *router.RouteDef) error {
	if r.ID != "" {
		def.ID = r.ID
	}
	def.Path = r.Path
	def.CaseSensitive = r.CaseSensitive
	def.HandlesNotFound = r.NotFound
	def.Meta = r.Meta

	var err error
	if def.StaleTime, err = duration(r, "staleTime", r.StaleTime); err != nil {
		return err
	}
	if def.GCMaxAge, err = duration(r, "gcMaxAge", r.GCMaxAge); err != nil {
		return err
	}

	if len(r.Search) > 0 {
		schema := &search.Schema{Fields: make([]search.Field, 0, len(r.Search))}
		for _, f := range r.Search {
			field, err := f.field(r)
			if err != nil {
				return err
			}
			schema.Fields = append(schema.Fields, field)
		}
		def.ValidateSearch = schema
	}

	if r.Data != nil {
		data := r.Data
		def.Loader = func(ctx context.Context, c *router.LoaderContext) (any, error) {
			return data, nil
		}
	}
	if r.Redirect != "" {
		href := r.Redirect
		def.BeforeLoad = func(ctx context.Context, c *router.BeforeLoadContext) (map[string]any, error) {
			return nil, router.Redirect(href)
		}
	}
	return nil
}

func duration(r Route, field, v string) (*time.Duration, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, errors.New("E251").Wrap(err).
			WithRoute(r.ID, r.Path).
			WithDetail(fmt.Sprintf("%s %q is not a duration", field, v))
	}
	return &d, nil
}

func (f SearchField) field(r Route) (search.Field, error) {
	out := search.Field{
		Name:     f.Name,
		Type:     search.FieldType(f.Type),
		Default:  typed(search.FieldType(f.Type), f.Default),
		Required: f.Required,
		Fallback: typed(search.FieldType(f.Type), f.Fallback),
	}
	if f.Name == "" {
		return out, errors.New("E251").WithRoute(r.ID, r.Path).WithDetail("search field without a name")
	}
	switch out.Type {
	case "", search.TypeAny, search.TypeString, search.TypeNumber, search.TypeInt,
		search.TypeBool, search.TypeArray, search.TypeObject:
	default:
		return out, errors.New("E251").WithRoute(r.ID, r.Path).
			WithDetail(fmt.Sprintf("search field %s has unknown type %q", f.Name, f.Type))
	}

	if f.Check != "" {
		check, err := compileCheck(f.Check)
		if err != nil {
			return out, errors.New("E252").Wrap(err).
				WithRoute(r.ID, r.Path).
				WithDetail(fmt.Sprintf("search field %s: %v", f.Name, err))
		}
		out.Check = check
	}
	return out, nil
}

// typed converts JSON numbers in defaults and fallbacks to ints for int
// fields, matching what validation produces for present keys.
func typed(t search.FieldType, v any) any {
	if f, ok := v.(float64); ok && t == search.TypeInt && f == math.Trunc(f) {
		return int(f)
	}
	return v
}

// compileCheck compiles a check expression into a search field check.
// value and search are left untyped so any comparison they take part in
// is checked when the expression runs.
func compileCheck(src string) (func(value any, s map[string]any) error, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}
	return func(value any, s map[string]any) error {
		return runCheck(program, src, value, s)
	}, nil
}

func runCheck(program *vm.Program, src string, value any, s map[string]any) error {
	out, err := expr.Run(program, map[string]any{"value": value, "search": s})
	if err != nil {
		return fmt.Errorf("check %q: %w", src, err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("check %q failed", src)
	}
	return nil
}
