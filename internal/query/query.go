// Package query turns list-endpoint query strings into a typed Query:
// filter, sort, field selection and pagination, in that order.
package query

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// VersionField is the internal version marker, always excluded from output.
const VersionField = "__v"

const (
	DefaultPage  = 1
	DefaultLimit = 100
	// MaxLimit caps the page size a client may ask for.
	MaxLimit = 1000
	DefaultSort  = "-createdAt"
)

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var rangeOps = map[string]Op{"gt": OpGt, "gte": OpGte, "lt": OpLt, "lte": OpLte}

// Filter is a single predicate. Values holds one entry except for OpIn.
type Filter struct {
	Field  string
	Op     Op
	Values []string
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Projection selects output fields. At most one of Include and Exclude is set.
type Projection struct {
	Include []string
	Exclude []string
}

// Query is the refined list query.
type Query struct {
	Filters []Filter
	Sort    []SortField
	Fields  Projection
	Page    int
	Limit   int
	Skip    int
}

// Options tunes Build per entity.
type Options struct {
	// MultiValue lists fields that accept repeated values as set membership.
	// Repeated values of any other field collapse to the last one.
	MultiValue []string
}

var bracketKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)\[([a-z]+)\]$`)

// Build runs the four stages over params. params is never modified.
func Build(params url.Values, opts Options) (Query, error) {
	var q Query
	var err error
	if q.Filters, err = filter(params, opts); err != nil {
		return Query{}, err
	}
	q.Sort = sortFields(params.Get("sort"))
	if q.Fields, err = limitFields(params.Get("fields")); err != nil {
		return Query{}, err
	}
	q.Page, q.Limit, q.Skip = paginate(params.Get("page"), params.Get("limit"))
	return q, nil
}

func filter(params url.Values, opts Options) ([]Filter, error) {
	multi := make(map[string]bool, len(opts.MultiValue))
	for _, f := range opts.MultiValue {
		multi[f] = true
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	filters := make([]Filter, 0, len(keys))
	for _, key := range keys {
		values := params[key]
		if len(values) == 0 {
			continue
		}
		field, op := key, OpEq
		if m := bracketKey.FindStringSubmatch(key); m != nil {
			rop, ok := rangeOps[m[2]]
			if !ok {
				return nil, domain.Errorf(domain.KindValidation, "Invalid operator %q on %s", m[2], m[1])
			}
			field, op = m[1], rop
		}
		switch {
		case op == OpEq && multi[field] && len(values) > 1:
			filters = append(filters, Filter{Field: field, Op: OpIn, Values: append([]string(nil), values...)})
		default:
			filters = append(filters, Filter{Field: field, Op: op, Values: []string{values[len(values)-1]}})
		}
	}
	return filters, nil
}

func sortFields(raw string) []SortField {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultSort
	}
	var out []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, SortField{Field: part[1:], Desc: true})
			continue
		}
		out = append(out, SortField{Field: strings.TrimPrefix(part, "+")})
	}
	return out
}

func limitFields(raw string) (Projection, error) {
	var p Projection
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == VersionField || part == "-"+VersionField {
			continue
		}
		if strings.HasPrefix(part, "-") {
			p.Exclude = append(p.Exclude, part[1:])
		} else {
			p.Include = append(p.Include, part)
		}
	}
	if len(p.Include) > 0 && len(p.Exclude) > 0 {
		return Projection{}, domain.Validation("Projection cannot mix included and excluded fields")
	}
	if len(p.Include) == 0 {
		p.Exclude = append(p.Exclude, VersionField)
	}
	return p, nil
}

func paginate(rawPage, rawLimit string) (page, limit, skip int) {
	page = positiveInt(rawPage, DefaultPage)
	limit = min(positiveInt(rawLimit, DefaultLimit), MaxLimit)
	// A page past what int can address is past every result, so the skip
	// saturates instead of wrapping negative.
	if page-1 > math.MaxInt/limit {
		return page, limit, math.MaxInt
	}
	return page, limit, (page - 1) * limit
}

// positiveInt parses raw, saturating values too large for int. Anything
// unparsable or below one yields def.
func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Alias returns a copy of params with the fixed values forced on top, for
// canned list endpoints such as "top 5 cheap".
func Alias(params url.Values, fixed url.Values) url.Values {
	out := make(url.Values, len(params)+len(fixed))
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range fixed {
		out[k] = append([]string(nil), v...)
	}
	return out
}
