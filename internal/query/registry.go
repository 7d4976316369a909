package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// Kind is the value type of a filterable field.
type Kind int

const (
	String Kind = iota
	Number
	Integer
	Bool
	Time
	UUID
)

// Field maps a public field name onto a column.
type Field struct {
	Column string
	Kind   Kind
}

// Registry is the whitelist of fields a list query may filter and sort on.
type Registry map[string]Field

// Clause is one SQL predicate with ? placeholders.
type Clause struct {
	SQL  string
	Args []any
}

// Compiled is a Query lowered onto a table's columns.
type Compiled struct {
	Where  []Clause
	Order  []string
	Offset int
	Limit  int
}

var sqlOps = map[Op]string{OpEq: "=", OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<="}

// Compile validates q against the registry and produces SQL fragments.
// Unknown fields are validation errors; values that do not parse as the
// field's kind are malformed-reference errors.
func (r Registry) Compile(q Query) (Compiled, error) {
	c := Compiled{Offset: q.Skip, Limit: q.Limit}

	for _, f := range q.Filters {
		field, ok := r[f.Field]
		if !ok {
			return Compiled{}, domain.Errorf(domain.KindValidation, "Invalid filter field: %s", f.Field)
		}
		args := make([]any, 0, len(f.Values))
		for _, raw := range f.Values {
			v, err := field.parse(raw)
			if err != nil {
				return Compiled{}, domain.Errorf(domain.KindMalformedReference, "Invalid %s: %s", f.Field, raw)
			}
			args = append(args, v)
		}
		if f.Op == OpIn {
			c.Where = append(c.Where, Clause{SQL: field.Column + " IN ?", Args: []any{args}})
			continue
		}
		c.Where = append(c.Where, Clause{SQL: fmt.Sprintf("%s %s ?", field.Column, sqlOps[f.Op]), Args: args})
	}

	hasID := false
	for _, s := range q.Sort {
		field, ok := r[s.Field]
		if !ok {
			return Compiled{}, domain.Errorf(domain.KindValidation, "Invalid sort field: %s", s.Field)
		}
		if field.Column == "id" {
			hasID = true
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		c.Order = append(c.Order, field.Column+" "+dir)
	}
	if !hasID {
		// Stable pagination across equal sort keys.
		c.Order = append(c.Order, "id ASC")
	}
	return c, nil
}

func (f Field) parse(raw string) (any, error) {
	switch f.Kind {
	case Number:
		return strconv.ParseFloat(raw, 64)
	case Integer:
		return strconv.ParseInt(raw, 10, 64)
	case Bool:
		return strconv.ParseBool(raw)
	case Time:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", raw)
	case UUID:
		return uuid.Parse(raw)
	default:
		return strings.TrimSpace(raw), nil
	}
}
