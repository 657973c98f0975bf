package services

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// JobQuery is the list filter accepted by GET /jobs.
type JobQuery struct {
	Search   string
	Status   string
	Page     int
	PageSize int
	Sort     string
	// Locale selects the collation used for title sorting (BCP 47, e.g. "en", "zh").
	Locale string
}

type JobPage struct {
	Data     []*Job `json:"data"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int    `json:"total"`
}

// JobSort is a parsed sort key. Field is "order" or "title".
type JobSort struct {
	Field string
	Desc  bool
}

var namedSorts = map[string]JobSort{
	"orderasc":  {Field: "order"},
	"orderdesc": {Field: "order", Desc: true},
	"titleasc":  {Field: "title"},
	"titledesc": {Field: "title", Desc: true},
}

// ParseJobSort accepts orderAsc/orderDesc/titleAsc/titleDesc (any case) or field:dir.
// Anything unrecognised sorts by order ascending.
func ParseJobSort(raw string) JobSort {
	s := strings.ToLower(strings.TrimSpace(raw))
	if field, dir, ok := strings.Cut(s, ":"); ok {
		if field != "title" {
			field = "order"
		}
		return JobSort{Field: field, Desc: dir == "desc"}
	}
	if js, ok := namedSorts[s]; ok {
		return js
	}
	return JobSort{Field: "order"}
}

func clampPaging(page, pageSize int) (int, int) {
	if page == 0 {
		page = DefaultPage
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return max(1, page), max(1, pageSize)
}

// QueryJobs filters, sorts and paginates jobs. total counts every match, not just the page.
func QueryJobs(all []*Job, q JobQuery) JobPage {
	page, pageSize := clampPaging(q.Page, q.PageSize)

	search := strings.ToLower(q.Search)
	matched := make([]*Job, 0, len(all))
	for _, j := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(j.Title), search) &&
			!strings.Contains(strings.ToLower(j.Slug), search) {
			continue
		}
		if q.Status != "" && string(j.Status) != q.Status {
			continue
		}
		matched = append(matched, j)
	}

	js := ParseJobSort(q.Sort)
	if js.Field == "title" {
		coll := collate.New(localeTag(q.Locale), collate.IgnoreCase, collate.IgnoreDiacritics)
		sort.SliceStable(matched, func(a, b int) bool {
			cmp := coll.CompareString(matched[a].Title, matched[b].Title)
			if js.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	} else {
		sort.SliceStable(matched, func(a, b int) bool {
			if js.Desc {
				return matched[a].Order > matched[b].Order
			}
			return matched[a].Order < matched[b].Order
		})
	}

	total := len(matched)
	data := []*Job{}
	// Compare page numbers rather than offsets so huge pages cannot overflow.
	if total > 0 && page-1 <= (total-1)/pageSize {
		start := (page - 1) * pageSize
		data = matched[start : start+min(pageSize, total-start)]
	}
	return JobPage{Data: data, Page: page, PageSize: pageSize, Total: total}
}

func localeTag(locale string) language.Tag {
	if locale == "" {
		return language.Und
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}
