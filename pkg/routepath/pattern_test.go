package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		pattern string
		want    []Segment
	}{
		{"", nil},
		{"posts", []Segment{{Kind: SegmentStatic, Value: "posts"}}},
		{"/posts/$postId", []Segment{{Kind: SegmentStatic, Value: "posts"}, {Kind: SegmentParam, Value: "postId"}}},
		{":id", []Segment{{Kind: SegmentParam, Value: "id"}}},
		{"$id?", []Segment{{Kind: SegmentOptional, Value: "id"}}},
		{"{-$lang}/about", []Segment{{Kind: SegmentOptional, Value: "lang"}, {Kind: SegmentStatic, Value: "about"}}},
		{"files/$", []Segment{{Kind: SegmentStatic, Value: "files"}, {Kind: SegmentWildcard, Value: SplatParam}}},
		{"files/*", []Segment{{Kind: SegmentStatic, Value: "files"}, {Kind: SegmentWildcard, Value: SplatParam}}},
		{"files/*path", []Segment{{Kind: SegmentStatic, Value: "files"}, {Kind: SegmentWildcard, Value: "path"}}},
		{"post-{$id}.html", []Segment{{Kind: SegmentParam, Value: "id", Prefix: "post-", Suffix: ".html"}}},
		{"img-{$}", []Segment{{Kind: SegmentWildcard, Value: SplatParam, Prefix: "img-"}}},
		{"_layout", nil},
		{"(marketing)/pricing", []Segment{{Kind: SegmentStatic, Value: "pricing"}}},
		{"/", []Segment{{Kind: SegmentSlash}}},
		{"posts/", []Segment{{Kind: SegmentStatic, Value: "posts"}, {Kind: SegmentSlash}}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.pattern, err)
			}
			got := p.Segments()
			if len(got) == 0 && len(tt.want) == 0 {
				if !p.Pathless() && !p.IsIndex() {
					t.Errorf("Compile(%q) should be pathless", tt.pattern)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compile(%q) = %+v, want %+v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, pattern := range []string{
		"files/$/more",
		"post-{$id",
		"post-$id}",
		"{$id}{$other}",
		"{$}/",
		"$?",
		"{%x}",
	} {
		_, err := Compile(pattern)
		if !errors.Is(err, ErrMalformedPattern) {
			t.Errorf("Compile(%q) error = %v, want ErrMalformedPattern", pattern, err)
		}
	}
}

func TestPatternTest(t *testing.T) {
	tests := []struct {
		pattern    string
		path       string
		match      bool
		wantParams map[string]string
		opts       []Option
	}{
		{pattern: "/users/$id", path: "/users/42", match: true, wantParams: map[string]string{"id": "42"}},
		{pattern: "/users/$id", path: "/users", match: false},
		{pattern: "/users/$id", path: "/users/42/edit", match: false},
		{pattern: "/users/active", path: "/Users/ACTIVE", match: true, wantParams: map[string]string{}},
		{pattern: "/users/active", path: "/Users/active", match: false, opts: []Option{CaseSensitive(true)}},
		{pattern: "/files/$", path: "/files/a/b/c.txt", match: true, wantParams: map[string]string{SplatParam: "a/b/c.txt"}},
		{pattern: "/files/$", path: "/files", match: true, wantParams: map[string]string{SplatParam: ""}},
		{pattern: "/img-{$}", path: "/", match: false},
		{pattern: "/{-$lang}/about", path: "/about", match: true, wantParams: map[string]string{}},
		{pattern: "/{-$lang}/about", path: "/fr/about", match: true, wantParams: map[string]string{"lang": "fr"}},
		{pattern: "/post-{$id}.html", path: "/post-7.html", match: true, wantParams: map[string]string{"id": "7"}},
		{pattern: "/post-{$id}.html", path: "/post-.html", match: false},
		{pattern: "/img-{$}", path: "/img-a/b", match: true, wantParams: map[string]string{SplatParam: "a/b"}},
		{pattern: "", path: "/", match: true, wantParams: map[string]string{}},
		{pattern: "/", path: "/", match: true, wantParams: map[string]string{}},
		{pattern: "/a%20b/$x", path: "/a%20b/c%2Fd", match: true, wantParams: map[string]string{"x": "c%2Fd"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			p := MustCompile(tt.pattern, tt.opts...)
			got, ok := p.Test(Split(tt.path))
			if ok != tt.match {
				t.Fatalf("Test(%q) matched = %v, want %v", tt.path, ok, tt.match)
			}
			if ok && !reflect.DeepEqual(got.Params, tt.wantParams) {
				t.Errorf("Test(%q) params = %v, want %v", tt.path, got.Params, tt.wantParams)
			}
		})
	}
}

func TestPrefixes(t *testing.T) {
	p := MustCompile("$lang?/docs")
	got := p.Prefixes(Split("/docs/docs/x"))

	if len(got) != 2 {
		t.Fatalf("Prefixes returned %d results, want 2: %+v", len(got), got)
	}
	if got[0].Consumed != 2 || got[0].Params["lang"] != "docs" {
		t.Errorf("first result = %+v", got[0])
	}
	if got[1].Consumed != 1 || len(got[1].Params) != 0 {
		t.Errorf("second result = %+v", got[1])
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		pattern string
		params  map[string]string
		want    string
		wantErr error
	}{
		{"/posts/$postId", map[string]string{"postId": "42"}, "/posts/42", nil},
		{"/posts/$postId", nil, "", ErrMissingParam},
		{"/{-$lang}/about", nil, "/about", nil},
		{"/{-$lang}/about", map[string]string{"lang": "de"}, "/de/about", nil},
		{"/files/$", map[string]string{SplatParam: "a/b"}, "/files/a/b", nil},
		{"/files/$", nil, "/files", nil},
		{"/post-{$id}.html", map[string]string{"id": "9"}, "/post-9.html", nil},
		{"/posts/", nil, "/posts", nil},
		{"", nil, "/", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := MustCompile(tt.pattern).Build(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Build = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	parent := MustCompile("/posts")
	child := MustCompile("$postId")
	full := parent.Join(MustCompile("_layout")).Join(child)

	if full.String() != "/posts/$postId" {
		t.Errorf("Join = %q", full.String())
	}
	if !reflect.DeepEqual(full.ParamNames(), []string{"postId"}) {
		t.Errorf("ParamNames = %v", full.ParamNames())
	}

	index := parent.Join(MustCompile("/"))
	if !index.IsIndex() || index.String() != "/posts/" {
		t.Errorf("index Join = %q", index.String())
	}
}
