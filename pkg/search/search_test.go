package search

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  map[string]any
	}{
		{"", map[string]any{}},
		{"?", map[string]any{}},
		{"?page=2", map[string]any{"page": float64(2)}},
		{"q=hello+world", map[string]any{"q": "hello world"}},
		{"q=%2242%22", map[string]any{"q": "42"}},
		{"flag=true&none=", map[string]any{"flag": true, "none": ""}},
		{"tag=a&tag=b&tag=c", map[string]any{"tag": []any{"a", "b", "c"}}},
		{"f=%7B%22a%22%3A1%7D", map[string]any{"f": map[string]any{"a": float64(1)}}},
		{"ids=%5B1%2C2%5D&ids=3", map[string]any{"ids": []any{[]any{float64(1), float64(2)}, float64(3)}}},
		{"bad=%zz", map[string]any{"bad": "%zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Parse(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.query, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"empty", nil, ""},
		{"sorted keys", map[string]any{"b": "x", "a": "y"}, "a=y&b=x"},
		{"number", map[string]any{"page": 2}, "page=2"},
		{"numeric string quoted", map[string]any{"q": "2"}, "q=%222%22"},
		{"plain string", map[string]any{"q": "hi there"}, "q=hi+there"},
		{"nil omitted", map[string]any{"a": nil, "b": 1}, "b=1"},
		{"nil slice omitted", map[string]any{"a": []string(nil)}, ""},
		{"array", map[string]any{"t": []string{"a", "b"}}, "t=%5B%22a%22%2C%22b%22%5D"},
		{"object", map[string]any{"f": map[string]any{"x": true}}, "f=%7B%22x%22%3Atrue%7D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.input); got != tt.want {
				t.Errorf("Stringify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	objects := []map[string]any{
		{"page": 3, "sort": "desc"},
		{"q": "42", "flag": false, "ratio": 0.5},
		{"filters": map[string]any{"status": []any{"open", "closed"}, "depth": map[string]any{"min": 1}}},
		{"tags": []any{"a", "b c", "&="}},
		{"weird": "{not json", "empty": ""},
		{"unicode": "café ☕"},
	}

	for _, obj := range objects {
		q := Stringify(obj)
		back := Parse(q)
		if !Equal(back, obj) {
			t.Errorf("Parse(Stringify(%v)) = %v via %q", obj, back, q)
		}
		if again := Stringify(back); again != q {
			t.Errorf("Stringify(Parse(%q)) = %q", q, again)
		}
	}
}

func TestQueryRoundTripIsKeyOrderIndependent(t *testing.T) {
	a := Stringify(Parse("b=2&a=%22x%22&c=true"))
	b := Stringify(Parse("c=true&a=%22x%22&b=2"))
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
}

func TestResolveMergesChildOverParent(t *testing.T) {
	root := ValidatorFunc(func(in map[string]any) (map[string]any, error) {
		return map[string]any{"theme": "dark", "page": 1}, nil
	})
	child := &Schema{Fields: []Field{
		{Name: "page", Type: TypeInt, Default: 1},
		{Name: "q", Type: TypeString},
	}}

	raw := Parse("page=4&q=go&extra=1")
	got := Resolve([]Step{{RouteID: "__root__"}, {RouteID: "/posts", Validator: root}, {RouteID: "/posts/", Validator: child}}, raw)

	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Search, raw) {
		t.Errorf("root search = %v", got[0].Search)
	}
	if got[1].Search["page"] != 1 || got[1].Search["theme"] != "dark" {
		t.Errorf("parent search = %v", got[1].Search)
	}
	if _, ok := got[1].Strict["q"]; ok {
		t.Errorf("parent strict search leaked child key: %v", got[1].Strict)
	}

	leaf := got[2]
	if leaf.Search["page"] != 1 {
		// Child validated the parent's output, where page was already 1.
		t.Errorf("leaf page = %v, want 1", leaf.Search["page"])
	}
	if leaf.Search["q"] != "go" || leaf.Search["theme"] != "dark" || leaf.Search["extra"] != float64(1) {
		t.Errorf("leaf search = %v", leaf.Search)
	}
	wantStrict := map[string]any{"theme": "dark", "page": 1, "q": "go"}
	if !reflect.DeepEqual(leaf.Strict, wantStrict) {
		t.Errorf("leaf strict = %v, want %v", leaf.Strict, wantStrict)
	}
}

func TestResolveChildKeyWins(t *testing.T) {
	parent := ValidatorFunc(func(map[string]any) (map[string]any, error) {
		return map[string]any{"k": "parent"}, nil
	})
	child := ValidatorFunc(func(map[string]any) (map[string]any, error) {
		return map[string]any{"k": "child"}, nil
	})
	got := Resolve([]Step{{RouteID: "p", Validator: parent}, {RouteID: "c", Validator: child}}, map[string]any{})
	if got[1].Search["k"] != "child" || got[0].Search["k"] != "parent" {
		t.Errorf("got %v / %v", got[0].Search, got[1].Search)
	}
}

func TestResolveFailureIsPerRoute(t *testing.T) {
	failing := ValidatorFunc(func(map[string]any) (map[string]any, error) {
		return nil, errors.New("bad page")
	})
	after := ValidatorFunc(func(in map[string]any) (map[string]any, error) {
		return map[string]any{"seen": in["page"]}, nil
	})

	got := Resolve([]Step{{RouteID: "a", Validator: failing}, {RouteID: "b", Validator: after}}, map[string]any{"page": "x"})

	var verr *ValidationError
	if !errors.As(got[0].Err, &verr) || verr.RouteID != "a" {
		t.Fatalf("got[0].Err = %v", got[0].Err)
	}
	if !errors.Is(got[0].Err, ErrValidation) {
		t.Error("errors.Is(err, ErrValidation) = false")
	}
	if got[1].Err != nil || got[1].Search["seen"] != "x" {
		t.Errorf("got[1] = %+v", got[1])
	}
	if i, err := FirstError(got); i != 0 || err == nil {
		t.Errorf("FirstError = %d, %v", i, err)
	}
}

func TestResolvePanicBecomesFailure(t *testing.T) {
	panicky := ValidatorFunc(func(map[string]any) (map[string]any, error) {
		panic("boom")
	})
	got := Resolve([]Step{{RouteID: "x", Validator: panicky}}, nil)
	if got[0].Outcome != Failed || got[0].Err == nil {
		t.Errorf("got %+v", got[0])
	}
}

func TestWithFallback(t *testing.T) {
	failing := ValidatorFunc(func(map[string]any) (map[string]any, error) {
		return nil, errors.New("nope")
	})
	v := WithFallback(failing, map[string]any{"page": 1})
	got := Resolve([]Step{{RouteID: "x", Validator: v}}, map[string]any{"page": "abc"})

	if got[0].Err != nil {
		t.Fatalf("unexpected error %v", got[0].Err)
	}
	if got[0].Outcome != Fallback || got[0].Search["page"] != 1 {
		t.Errorf("got %+v", got[0])
	}

	caught := Catch(failing, func(in map[string]any, err error) map[string]any {
		return map[string]any{"reason": err.Error()}
	})
	if res := caught.Validate(nil); res.Outcome != Fallback || res.Value["reason"] != "nope" {
		t.Errorf("Catch result = %+v", res)
	}
}

func TestSchema(t *testing.T) {
	s := &Schema{Fields: []Field{
		{Name: "page", Type: TypeInt, Default: 1},
		{Name: "q", Type: TypeString, Required: true},
		{Name: "sort", Type: TypeString, Fallback: "asc", Check: func(v any, _ map[string]any) error {
			if v != "asc" && v != "desc" {
				return errors.New("sort must be asc or desc")
			}
			return nil
		}},
		{Name: "draft", Type: TypeBool},
	}}

	tests := []struct {
		name    string
		input   map[string]any
		want    map[string]any
		outcome Outcome
	}{
		{
			name:    "defaults applied",
			input:   map[string]any{"q": "go"},
			want:    map[string]any{"page": 1, "q": "go"},
			outcome: OK,
		},
		{
			name:    "coercion",
			input:   map[string]any{"q": float64(7), "page": "3", "draft": "true"},
			want:    map[string]any{"page": 3, "q": "7", "draft": true},
			outcome: OK,
		},
		{
			name:    "field fallback",
			input:   map[string]any{"q": "go", "sort": "sideways"},
			want:    map[string]any{"page": 1, "q": "go", "sort": "asc"},
			outcome: Fallback,
		},
		{
			name:    "required missing",
			input:   map[string]any{},
			outcome: Failed,
		},
		{
			name:    "bad int",
			input:   map[string]any{"q": "go", "page": 1.5},
			outcome: Failed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Validate(tt.input)
			if res.Outcome != tt.outcome {
				t.Fatalf("Outcome = %v, want %v (err %v)", res.Outcome, tt.outcome, res.Err)
			}
			if tt.outcome != Failed && !reflect.DeepEqual(res.Value, tt.want) {
				t.Errorf("Value = %v, want %v", res.Value, tt.want)
			}
		})
	}
}

func TestMiddlewares(t *testing.T) {
	current := map[string]any{"theme": "dark", "page": 3, "debug": true}
	dest := func(map[string]any) map[string]any {
		return map[string]any{"page": 1, "q": "go"}
	}

	tests := []struct {
		name string
		mws  []Middleware
		want map[string]any
	}{
		{"none", nil, map[string]any{"page": 1, "q": "go"}},
		{"retain", []Middleware{Retain("theme", "page")}, map[string]any{"page": 1, "q": "go", "theme": "dark"}},
		{"retain all", []Middleware{RetainAll()}, map[string]any{"page": 1, "q": "go", "theme": "dark", "debug": true}},
		{"strip", []Middleware{Strip("q")}, map[string]any{"page": 1}},
		{"strip defaults", []Middleware{StripDefaults(map[string]any{"page": 1})}, map[string]any{"q": "go"}},
		{"strip all", []Middleware{StripAll()}, map[string]any{}},
		{"strip wraps retain", []Middleware{StripDefaults(map[string]any{"theme": "dark"}), Retain("theme")}, map[string]any{"page": 1, "q": "go"}},
		{"retain wraps strip", []Middleware{Retain("theme"), StripDefaults(map[string]any{"theme": "dark"})}, map[string]any{"page": 1, "q": "go", "theme": "dark"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Run(tt.mws, current, dest)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
		})
	}
}
