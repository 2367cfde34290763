package query

import (
	"strings"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// Op identifies a predicate operator.
type Op string

// Predicate operators. Every filter compiles to one of these; engines
// translate them into their native clause types.
const (
	OpEq  Op = "eq"  // exact term match
	OpIn  Op = "in"  // set intersection is non-empty
	OpGte Op = "gte" // inclusive lower bound
	OpLte Op = "lte" // inclusive upper bound
)

// Filterable item fields.
const (
	FieldCategory   = "category"
	FieldType       = "type"
	FieldCondition  = "condition"
	FieldStatus     = "status"
	FieldUploaderID = "uploader_id"
	FieldSize       = "size"
	FieldTags       = "tags"
	FieldCreatedAt  = "created_at"
)

// Predicate is a single declarative filter clause. A compiled FilterSet is
// the conjunction of its predicates.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// Compile turns a FilterSet into its predicate list. Absent filter fields
// emit no predicate, so an empty FilterSet compiles to an empty conjunction
// that matches every item.
func Compile(f domain.FilterSet) []Predicate {
	var preds []Predicate

	eq := func(field, value string) {
		if value != "" {
			preds = append(preds, Predicate{Field: field, Op: OpEq, Value: value})
		}
	}

	eq(FieldCategory, f.Category)
	eq(FieldType, f.Type)
	eq(FieldCondition, f.Condition)
	eq(FieldStatus, f.Status)
	eq(FieldUploaderID, f.UploaderID)
	eq(FieldSize, f.Size)

	if len(f.Tags) > 0 {
		preds = append(preds, Predicate{Field: FieldTags, Op: OpIn, Value: f.Tags})
	}
	if f.DateFrom != nil {
		preds = append(preds, Predicate{Field: FieldCreatedAt, Op: OpGte, Value: *f.DateFrom})
	}
	if f.DateTo != nil {
		preds = append(preds, Predicate{Field: FieldCreatedAt, Op: OpLte, Value: *f.DateTo})
	}

	return preds
}

// Matches evaluates the conjunction of preds against an item. It is the
// reference evaluation used by the in-memory engine; the Elasticsearch
// engine translates the same predicates into filter clauses instead.
func Matches(item domain.Item, preds []Predicate) bool {
	for _, p := range preds {
		if !matchOne(item, p) {
			return false
		}
	}
	return true
}

func matchOne(item domain.Item, p Predicate) bool {
	switch p.Op {
	case OpEq:
		want, _ := p.Value.(string)
		return strings.EqualFold(fieldValue(item, p.Field), want)
	case OpIn:
		want, _ := p.Value.([]string)
		return intersects(item.Tags, want)
	case OpGte:
		bound, _ := p.Value.(time.Time)
		return !item.CreatedAt.Before(bound)
	case OpLte:
		bound, _ := p.Value.(time.Time)
		return !item.CreatedAt.After(bound)
	default:
		return false
	}
}

func fieldValue(item domain.Item, field string) string {
	switch field {
	case FieldCategory:
		return item.Category
	case FieldType:
		return item.Type
	case FieldCondition:
		return item.Condition
	case FieldStatus:
		return item.Status
	case FieldUploaderID:
		return item.UploaderID
	case FieldSize:
		return item.Size
	default:
		return ""
	}
}

func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
