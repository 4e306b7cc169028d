// Package filter turns untrusted list/search query parameters into a typed
// filter and sort descriptor. Only fields enumerated here can ever reach the
// persistence layer.
package filter

import "strings"

// Field is a medicamento attribute that may be filtered or sorted on.
type Field int

const (
	FieldNome Field = iota + 1
	FieldIndicacaoUso
	FieldCategoria
	FieldTipoUnidade
	FieldSituacao
	FieldID
	FieldQuantidadeMinima
	FieldCreatedAt
	FieldUpdatedAt
)

var fieldNames = map[Field]string{
	FieldNome:             "nome",
	FieldIndicacaoUso:     "indicacao_uso",
	FieldCategoria:        "categoria",
	FieldTipoUnidade:      "tipo_unidade",
	FieldSituacao:         "situacao",
	FieldID:               "id",
	FieldQuantidadeMinima: "quantidade_minima",
	FieldCreatedAt:        "created_at",
	FieldUpdatedAt:        "updated_at",
}

// String returns the query-parameter name of the field.
func (f Field) String() string {
	return fieldNames[f]
}

// Op is the comparison applied by a predicate.
type Op int

const (
	OpContains Op = iota + 1
	OpEquals
)

// Direction of a sort key.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderByParam is the query parameter carrying "field,direction".
const OrderByParam = "orderBy"

// filterable is ordered so that Build emits predicates deterministically.
var filterable = []struct {
	field Field
	op    Op
}{
	{FieldNome, OpContains},
	{FieldIndicacaoUso, OpContains},
	{FieldCategoria, OpEquals},
	{FieldTipoUnidade, OpEquals},
	{FieldSituacao, OpEquals},
}

var sortable = map[string]Field{
	"nome":              FieldNome,
	"indicacao_uso":     FieldIndicacaoUso,
	"categoria":         FieldCategoria,
	"tipo_unidade":      FieldTipoUnidade,
	"situacao":          FieldSituacao,
	"id":                FieldID,
	"quantidade_minima": FieldQuantidadeMinima,
	"created_at":        FieldCreatedAt,
	"updated_at":        FieldUpdatedAt,
}

// Predicate restricts results on one field.
type Predicate struct {
	Field Field
	Op    Op
	Value string
}

// Sort is the single sort key of a query.
type Sort struct {
	Field     Field
	Direction Direction
}

// DefaultSort orders by nome ascending.
var DefaultSort = Sort{Field: FieldNome, Direction: Asc}

// Query is the validated descriptor handed to the repository.
type Query struct {
	Predicates []Predicate
	Sort       Sort
}

// Build converts raw query parameters into a Query. Unknown keys and blank
// values are dropped without error. A malformed, unknown-field or
// invalid-direction orderBy falls back to DefaultSort.
func Build(params map[string]string) Query {
	q := Query{Sort: DefaultSort}

	for _, f := range filterable {
		value, ok := params[f.field.String()]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		q.Predicates = append(q.Predicates, Predicate{Field: f.field, Op: f.op, Value: value})
	}

	if sort, ok := parseOrderBy(params[OrderByParam]); ok {
		q.Sort = sort
	}
	return q
}

// HasCriteria reports whether params carry an orderBy or at least one
// non-blank allow-listed filter.
func HasCriteria(params map[string]string) bool {
	if strings.TrimSpace(params[OrderByParam]) != "" {
		return true
	}
	for _, f := range filterable {
		if strings.TrimSpace(params[f.field.String()]) != "" {
			return true
		}
	}
	return false
}

func parseOrderBy(raw string) (Sort, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Sort{}, false
	}
	field, ok := sortable[strings.TrimSpace(parts[0])]
	if !ok {
		return Sort{}, false
	}
	switch Direction(strings.ToUpper(strings.TrimSpace(parts[1]))) {
	case Asc:
		return Sort{Field: field, Direction: Asc}, true
	case Desc:
		return Sort{Field: field, Direction: Desc}, true
	default:
		return Sort{}, false
	}
}
