package options

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-opsforms/pkg/model"
)

// DefaultPageSize applies when a request does not carry one.
const DefaultPageSize = 10

// Static serves a fixed option list through the fetcher contract so static
// lists can back select-search fields. Search matches labels (and values)
// case-insensitively with prefix matches ranked first. Filters are compared
// against nothing and ignored. A bound Value with no search text moves the
// matching option to the top of page 1 so its label resolves.
func Static(options []model.Option) model.OptionsFetcher {
	list := append([]model.Option(nil), options...)
	return func(ctx context.Context, req model.FetchRequest) (model.FetchResult, error) {
		if err := ctx.Err(); err != nil {
			return model.FetchResult{}, err
		}
		matches := Search(list, req.Search)
		if strings.TrimSpace(req.Search) == "" && !isBlank(req.Value) {
			matches = pinValue(matches, req.Value)
		}
		result := Paginate(matches, req.Page, req.PageSize)
		if req.OnPartial != nil && len(result.Data) > 0 {
			req.OnPartial(result.Data)
		}
		return result, nil
	}
}

// Search filters options by query. An empty query returns every option in
// its original order.
func Search(options []model.Option, query string) []model.Option {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]model.Option(nil), options...)
	}

	matches := make([]matched, 0, len(options))
	for idx, option := range options {
		label := strings.ToLower(option.Label)
		value := strings.ToLower(fmt.Sprint(option.Value))
		if !strings.Contains(label, query) && !strings.Contains(value, query) {
			continue
		}
		matches = append(matches, matched{
			option:   option,
			isPrefix: strings.HasPrefix(label, query),
			order:    idx,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].order < matches[j].order
	})

	out := make([]model.Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.option)
	}
	return out
}

// Paginate slices one 1-based page out of options.
func Paginate(options []model.Option, page, pageSize int) model.FetchResult {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start := (page - 1) * pageSize
	if start >= len(options) {
		return model.FetchResult{Data: []model.Option{}, Total: len(options)}
	}
	end := start + pageSize
	if end > len(options) {
		end = len(options)
	}
	return model.FetchResult{
		Data:    append([]model.Option(nil), options[start:end]...),
		HasMore: end < len(options),
		Total:   len(options),
	}
}

type matched struct {
	option   model.Option
	isPrefix bool
	order    int
}

func pinValue(options []model.Option, value any) []model.Option {
	target := fmt.Sprint(value)
	for idx, option := range options {
		if fmt.Sprint(option.Value) != target {
			continue
		}
		if idx == 0 {
			return options
		}
		out := make([]model.Option, 0, len(options))
		out = append(out, option)
		out = append(out, options[:idx]...)
		return append(out, options[idx+1:]...)
	}
	return options
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text) == ""
	}
	return false
}
