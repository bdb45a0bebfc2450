package surveysync

import (
	"context"
	"reflect"
	"testing"
)

func TestExtractFormID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://docs.google.com/forms/d/1AbC_d-EfG/viewform", "1AbC_d-EfG"},
		{"https://docs.google.com/forms/d/e/1FAIpQLSe123/viewform?usp=sf_link", "1FAIpQLSe123"},
		{"https://docs.google.com/forms/d/1AbC", "1AbC"},
		{"https://example.com/not-a-form", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractFormID(tc.url); got != tc.want {
			t.Errorf("ExtractFormID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestSourceResolverMergesAndDedupes(t *testing.T) {
	cfg := Config{StaticFormIDs: []string{"static1", "shared"}}
	listURLs := func(ctx context.Context) ([]string, error) {
		return []string{
			"https://docs.google.com/forms/d/shared/viewform",
			"https://docs.google.com/forms/d/dynamic1/viewform",
			"https://example.com/unrelated",
		}, nil
	}

	resolver := NewSourceResolver(cfg, listURLs)
	got, err := resolver.ResolveFormIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"static1", "shared", "dynamic1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSourceResolverStaticOnly(t *testing.T) {
	resolver := NewSourceResolver(Config{StaticFormIDs: []string{"a", "b", "a"}}, nil)
	got, err := resolver.ResolveFormIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
