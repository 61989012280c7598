// internal/query/composer.go
package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// Descriptor is a composed collection query, ready to be executed by a
// repository.
type Descriptor struct {
	Filter bson.M
	Skip   int64
	Limit  int64
	Sort   bson.D
}

// Composer builds a Descriptor from request parameters. Methods are
// chainable and may be called in any order; nothing is executed here.
type Composer struct {
	params url.Values
	fields FieldSet

	search bson.M
	filter bson.M
	skip   int64
	limit  int64
	sort   bson.D
}

func New(params url.Values, fields FieldSet) *Composer {
	if params == nil {
		params = url.Values{}
	}
	return &Composer{
		params: params,
		fields: fields,
		search: bson.M{},
		filter: bson.M{},
	}
}

// Search adds a case-insensitive substring match on name when keyword is
// present. The keyword is matched literally.
func (c *Composer) Search() *Composer {
	c.search = bson.M{}
	keyword := strings.TrimSpace(c.params.Get("keyword"))
	if keyword == "" {
		return c
	}
	c.search["name"] = bson.M{
		"$regex":   regexp.QuoteMeta(keyword),
		"$options": "i",
	}
	return c
}

// Filter turns the remaining parameters into predicates over the
// enumerated field set. Plain keys are equality predicates and bracket
// keys (price[gte]=100) are comparisons.
func (c *Composer) Filter() *Composer {
	c.filter = bson.M{}

	keys := make([]string, 0, len(c.params))
	for key := range c.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		name, op := splitKey(key)
		field, ok := c.fields[name]
		if !ok {
			logrus.WithField("param", key).Debug("ignoring unknown filter field")
			continue
		}
		value, ok := field.convert(c.params.Get(key))
		if !ok {
			logrus.WithFields(logrus.Fields{
				"param": key,
				"value": c.params.Get(key),
			}).Debug("ignoring unparseable filter value")
			continue
		}

		if op == "" {
			if field.Comparable {
				c.comparison(name)["$eq"] = value
			} else {
				c.filter[name] = value
			}
			continue
		}

		mongoOp, supported := operators[op]
		if !supported || !field.Comparable {
			logrus.WithField("param", key).Debug("ignoring unsupported filter operator")
			continue
		}
		c.comparison(name)[mongoOp] = value
	}
	return c
}

func (c *Composer) comparison(name string) bson.M {
	if existing, ok := c.filter[name].(bson.M); ok {
		return existing
	}
	m := bson.M{}
	c.filter[name] = m
	return m
}

// Paginate applies the 1-based page parameter. Missing, malformed and
// non-positive pages all mean page 1.
func (c *Composer) Paginate(resultsPerPage int) *Composer {
	if resultsPerPage < 1 {
		resultsPerPage = 1
	}
	page := Page(c.params)
	c.limit = int64(resultsPerPage)
	if int64(page-1) > math.MaxInt64/c.limit {
		c.skip = math.MaxInt64
	} else {
		c.skip = int64(page-1) * c.limit
	}
	return c
}

// Sort orders by one allowed field: sort=price ascending, sort=-price
// descending. Anything else leaves the store's natural order.
func (c *Composer) Sort(allowed ...string) *Composer {
	c.sort = nil
	raw := strings.TrimSpace(c.params.Get("sort"))
	if raw == "" {
		return c
	}

	direction := 1
	if strings.HasPrefix(raw, "-") {
		direction = -1
		raw = raw[1:]
	}
	for _, field := range allowed {
		if field == raw {
			c.sort = bson.D{{Key: field, Value: direction}}
			return c
		}
	}
	logrus.WithField("sort", raw).Debug("ignoring unsupported sort field")
	return c
}

// Predicate is the search and filter predicate without pagination, for
// counting every matching document.
func (c *Composer) Predicate() bson.M {
	predicate := bson.M{}
	for k, v := range c.filter {
		predicate[k] = v
	}
	for k, v := range c.search {
		predicate[k] = v
	}
	return predicate
}

func (c *Composer) Query() Descriptor {
	return Descriptor{
		Filter: c.Predicate(),
		Skip:   c.skip,
		Limit:  c.limit,
		Sort:   c.sort,
	}
}

// Page reads the 1-based page parameter, clamped to at least 1.
func Page(params url.Values) int {
	page, err := strconv.Atoi(strings.TrimSpace(params.Get("page")))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// PerPage returns the limit parameter when it lies within [1, max] and
// def otherwise.
func PerPage(params url.Values, def, max int) int {
	limit, err := strconv.Atoi(strings.TrimSpace(params.Get("limit")))
	if err != nil || limit < 1 || limit > max {
		return def
	}
	return limit
}
