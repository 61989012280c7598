// internal/query/fields.go
package query

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

// Field describes one filterable document field. Comparable fields accept
// the bracket operators (price[gte]=100); the others only equality.
type Field struct {
	Kind       Kind
	Comparable bool
}

// FieldSet enumerates the fields a listing may be filtered on. Parameters
// naming anything else are dropped.
type FieldSet map[string]Field

// ProductFields is the filter schema for the catalog listing.
var ProductFields = FieldSet{
	"category": {Kind: KindString},
	"price":    {Kind: KindFloat, Comparable: true},
	"ratings":  {Kind: KindFloat, Comparable: true},
	"stock":    {Kind: KindInt, Comparable: true},
}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
}

// reserved parameters are consumed by Search, Paginate and Sort.
var reserved = map[string]bool{
	"keyword": true,
	"page":    true,
	"limit":   true,
	"sort":    true,
}

// convert parses raw into the field's declared kind.
func (f Field) convert(raw string) (interface{}, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	switch f.Kind {
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	case KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		return raw, true
	}
}

// splitKey turns "price[gte]" into ("price", "gte") and "category" into
// ("category", "").
func splitKey(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}
