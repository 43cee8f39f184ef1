// Package query compiles structured predicates into the repository's
// textual query language.
//
// A predicate is an operator applied to a field path with optional
// arguments. Predicates compile to the bracketed form the search endpoint
// expects:
//
//	Compile([]Predicate{At("document.id", "Ue0EDd_mqb8Dhk3j")})
//	// [[:d = at(document.id, "Ue0EDd_mqb8Dhk3j")]]
//
// The compiler is strictly sugar over the string form: a raw query string
// handed to the search form bypasses it entirely.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Predicate is one condition of a query: an operator, the field path it
// applies to, and operator-specific arguments.
type Predicate struct {
	Op   string
	Path string
	Args []any
}

// Pred builds a predicate for an arbitrary operator. The named
// constructors below cover the common operators; Pred is the escape hatch
// for the rest (e.g. "geopoint.near").
func Pred(op, path string, args ...any) Predicate {
	return Predicate{Op: op, Path: path, Args: args}
}

// At matches documents whose field equals value exactly.
func At(path string, value any) Predicate { return Pred("at", path, value) }

// Any matches documents whose field equals any of values.
func Any(path string, values []string) Predicate { return Pred("any", path, values) }

// Fulltext matches documents whose field contains the given text.
func Fulltext(path, text string) Predicate { return Pred("fulltext", path, text) }

// Similar matches documents similar to the one with the given id.
func Similar(id string, maxResults int) Predicate { return Pred("similar", id, maxResults) }

// NumberGT matches number fields strictly greater than value.
func NumberGT(path string, value float64) Predicate { return Pred("number.gt", path, value) }

// NumberLT matches number fields strictly less than value.
func NumberLT(path string, value float64) Predicate { return Pred("number.lt", path, value) }

// NumberInRange matches number fields within [low, high].
func NumberInRange(path string, low, high float64) Predicate {
	return Pred("number.inRange", path, low, high)
}

// DateAfter matches date fields strictly after t.
func DateAfter(path string, t time.Time) Predicate { return Pred("date.after", path, t) }

// DateBefore matches date fields strictly before t.
func DateBefore(path string, t time.Time) Predicate { return Pred("date.before", path, t) }

// DateBetween matches date fields between from and to.
func DateBetween(path string, from, to time.Time) Predicate {
	return Pred("date.between", path, from, to)
}

// Compile turns predicates into the textual query form
// [[:d = op(path, args...)][:d = ...]...].
//
// Paths starting with "my." or "document." are path expressions and are
// emitted unquoted; any other path is treated as a string literal.
func Compile(predicates []Predicate) string {
	var b strings.Builder
	b.WriteString("[")
	for _, p := range predicates {
		b.WriteString("[:d = ")
		b.WriteString(p.Op)
		b.WriteString("(")
		b.WriteString(pathLiteral(p.Path))
		for _, arg := range p.Args {
			b.WriteString(", ")
			b.WriteString(literal(arg))
		}
		b.WriteString(")]")
	}
	b.WriteString("]")
	return b.String()
}

func pathLiteral(path string) string {
	if strings.HasPrefix(path, "my.") || strings.HasPrefix(path, "document.") {
		return path
	}
	return strconv.Quote(path)
}

// literal encodes one predicate argument:
// strings are double-quoted, slices become bracketed lists of encoded
// elements, temporal values become milliseconds since epoch, and
// everything else (numbers, booleans) is emitted as-is.
func literal(arg any) string {
	switch v := arg.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ",") + "]"
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = literal(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case time.Time:
		return strconv.FormatInt(v.UnixMilli(), 10)
	case *time.Time:
		return strconv.FormatInt(v.UnixMilli(), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
