package repositories

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Op is a comparison operator usable in a Filter. The set is closed; anything
// else is rejected by the builder.
type Op string

const (
	OpEq        Op = "$eq"
	OpGt        Op = "$gt"
	OpGte       Op = "$gte"
	OpLt        Op = "$lt"
	OpLte       Op = "$lte"
	OpNe        Op = "$ne"
	OpIn        Op = "$in"
	OpElemMatch Op = "$elemMatch"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpGt, OpGte, OpLt, OpLte, OpNe, OpIn, OpElemMatch:
		return true
	}
	return false
}

// Filter is one field/operator/value condition. A filter list is combined
// with logical AND.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter, the common case for list endpoints.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// buildMatch translates an ordered filter list into a single match document.
// Multiple filters on the same field are merged into one operator document,
// preserving AND semantics.
func buildMatch(filters []Filter) (bson.M, error) {
	match := bson.M{}
	for _, f := range filters {
		if !f.Op.Valid() {
			return nil, errUnknownOperator(f)
		}
		ops, ok := match[f.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			match[f.Field] = ops
		}
		ops[string(f.Op)] = f.Value
	}
	return match, nil
}

func errUnknownOperator(f Filter) error {
	return &unknownOperatorError{filter: f}
}

type unknownOperatorError struct {
	filter Filter
}

func (e *unknownOperatorError) Error() string {
	return "unknown filter operator " + string(e.filter.Op) + " on field " + e.filter.Field
}
