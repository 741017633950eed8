package kb

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// schema declares the extensional predicates every engine is loaded with.
//
//	triple(Subject, Relation, Object)  one fact per triple
//	entity(Id, Type)                   one fact per entity term
//
// Entities are names /e<ordinal>, relations /<type>/<member> and types
// /<type>, all lowercased. Primitive objects are numbers, floats, strings or
// /true and /false; times are RFC 3339 strings.
const schema = `
Decl triple(Subject, Relation, Object).
Decl entity(Id, Type).
`

// Binding maps the variables of a query to the terms they matched.
type Binding map[string]Term

// Engine answers Datalog queries over one GraphKb, optionally extended with
// rules.
type Engine struct {
	program *analysis.ProgramInfo
	store   factstore.FactStore
	terms   map[string]Term
}

// NewEngine loads kb as facts, evaluates rules, Mangle source that may refer
// to triple/3 and entity/2, and returns an engine ready for queries.
func NewEngine(kb *GraphKb, rules string) (*Engine, error) {
	unit, err := parse.Unit(strings.NewReader(schema + "\n" + rules))
	if err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	program, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzing rules: %w", err)
	}

	e := &Engine{
		program: program,
		store:   factstore.NewSimpleInMemoryStore(),
		terms:   make(map[string]Term),
	}
	for _, t := range kb.Triples() {
		if err := e.addTriple(t); err != nil {
			return nil, err
		}
	}
	if _, err := engine.EvalProgramWithStats(program, e.store); err != nil {
		return nil, fmt.Errorf("evaluating rules: %w", err)
	}
	return e, nil
}

func (e *Engine) addTriple(t Triple) error {
	subject, err := e.constant(t.Subject)
	if err != nil {
		return err
	}
	relation, err := ast.Name("/" + symbol(t.Relation.Type) + "/" + symbol(t.Relation.Member))
	if err != nil {
		return fmt.Errorf("encoding relation %s: %w", t.Relation, err)
	}
	object, err := e.constant(t.Object)
	if err != nil {
		return err
	}
	e.store.Add(ast.NewAtom("triple", subject, relation, object))
	return nil
}

// constant encodes a term, recording entity terms so query results can be
// mapped back to them.
func (e *Engine) constant(t Term) (ast.Constant, error) {
	if !t.IsEntity() {
		return primitiveConstant(t.Value)
	}
	name, err := ast.Name("/e" + strconv.Itoa(t.Ordinal))
	if err != nil {
		return ast.Constant{}, fmt.Errorf("encoding entity %s: %w", t, err)
	}
	if _, seen := e.terms[name.Symbol]; !seen {
		e.terms[name.Symbol] = t
		typeName, err := ast.Name("/" + symbol(t.Type))
		if err != nil {
			return ast.Constant{}, fmt.Errorf("encoding type %s: %w", t.Type, err)
		}
		e.store.Add(ast.NewAtom("entity", name, typeName))
	}
	return name, nil
}

func primitiveConstant(v any) (ast.Constant, error) {
	if tv, ok := v.(time.Time); ok {
		return ast.String(tv.UTC().Format(time.RFC3339Nano)), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return ast.TrueConstant, nil
		}
		return ast.FalseConstant, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ast.Number(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			// Mangle numbers are int64; larger values keep their digits as a string.
			return ast.String(strconv.FormatUint(u, 10)), nil
		}
		return ast.Number(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return ast.Float64(rv.Float()), nil
	case reflect.String:
		return ast.String(rv.String()), nil
	default:
		return ast.Constant{}, fmt.Errorf("encoding %T: unsupported primitive", v)
	}
}

// symbol lowercases s and replaces anything but letters, digits and
// underscores so it can be part of a name constant.
func symbol(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// Query evaluates one atom such as "triple(S, /list/items, O)" and returns a
// binding per matching fact. A leading "?" and a trailing "." are accepted.
// The variable "_" matches anything and is not bound.
func (e *Engine) Query(ctx context.Context, query string) ([]Binding, error) {
	clean := strings.TrimSpace(query)
	clean = strings.TrimSpace(strings.TrimPrefix(clean, "?"))
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "."))
	if clean == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	pattern, err := parse.Atom(clean)
	if err != nil {
		return nil, fmt.Errorf("parsing query %q: %w", query, err)
	}
	if !e.known(pattern.Predicate) {
		return nil, fmt.Errorf("unknown predicate %s/%d", pattern.Predicate.Symbol, pattern.Predicate.Arity)
	}

	results := make([]Binding, 0)
	err = e.store.GetFacts(ast.NewQuery(pattern.Predicate), func(fact ast.Atom) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b, ok := e.match(pattern, fact); ok {
			results = append(results, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", pattern.Predicate.Symbol, err)
	}
	return results, nil
}

func (e *Engine) known(pred ast.PredicateSym) bool {
	if _, ok := e.program.Decls[pred]; ok {
		return true
	}
	for _, clause := range e.program.Rules {
		if clause.Head.Predicate == pred {
			return true
		}
	}
	return false
}

func (e *Engine) match(pattern, fact ast.Atom) (Binding, bool) {
	bound := make(map[string]ast.Constant)
	for i, arg := range pattern.Args {
		value, ok := fact.Args[i].(ast.Constant)
		if !ok {
			return nil, false
		}
		switch p := arg.(type) {
		case ast.Variable:
			if p.Symbol == "_" {
				continue
			}
			if prev, seen := bound[p.Symbol]; seen {
				if !sameConstant(prev, value) {
					return nil, false
				}
				continue
			}
			bound[p.Symbol] = value
		case ast.Constant:
			if !sameConstant(p, value) {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	b := make(Binding, len(bound))
	for name, c := range bound {
		b[name] = e.term(c)
	}
	return b, true
}

// sameConstant compares scalar constants, the only kind triples hold.
func sameConstant(a, b ast.Constant) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ast.NumberType, ast.Float64Type:
		return a.NumValue == b.NumValue
	default:
		return a.Symbol == b.Symbol
	}
}

// term decodes a constant back into a Term. Entity names map to the entity
// they were encoded from; other names decode to their text.
func (e *Engine) term(c ast.Constant) Term {
	switch c.Type {
	case ast.NameType:
		if t, ok := e.terms[c.Symbol]; ok {
			return t
		}
		switch c.Symbol {
		case "/true":
			return PrimitiveTerm(true)
		case "/false":
			return PrimitiveTerm(false)
		}
		return PrimitiveTerm(c.Symbol)
	case ast.StringType:
		return PrimitiveTerm(c.Symbol)
	case ast.NumberType:
		return PrimitiveTerm(c.NumValue)
	case ast.Float64Type:
		return PrimitiveTerm(math.Float64frombits(uint64(c.NumValue)))
	default:
		return PrimitiveTerm(c.String())
	}
}
