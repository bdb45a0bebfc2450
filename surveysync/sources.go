package surveysync

import (
	"context"
	"regexp"

	"bitbucket.org/mmdatafocus/clinic_backend/utils"
)

// SourceResolver yields the list of form ids a run should process.
type SourceResolver interface {
	ResolveFormIDs(ctx context.Context) ([]string, error)
}

var formURLPattern = regexp.MustCompile(`/forms/d/(?:e/)?([a-zA-Z0-9_-]+)`)

// ExtractFormID pulls the form id out of a shared form URL. Empty when
// the URL does not look like a form link.
func ExtractFormID(url string) string {
	match := formURLPattern.FindStringSubmatch(url)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

type sourceResolver struct {
	staticIDs []string
	listURLs  func(ctx context.Context) ([]string, error)
}

// NewSourceResolver merges the statically configured form ids with ids
// extracted from stored survey links. Static ids come first; the union
// is deduplicated preserving order.
func NewSourceResolver(cfg Config, listURLs func(ctx context.Context) ([]string, error)) SourceResolver {
	return &sourceResolver{staticIDs: cfg.StaticFormIDs, listURLs: listURLs}
}

func (r *sourceResolver) ResolveFormIDs(ctx context.Context) ([]string, error) {
	ids := append([]string{}, r.staticIDs...)

	if r.listURLs != nil {
		urls, err := r.listURLs(ctx)
		if err != nil {
			return nil, err
		}
		for _, url := range urls {
			if id := ExtractFormID(url); id != "" {
				ids = append(ids, id)
			}
		}
	}

	return utils.UniqueSlice(ids), nil
}
