package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"worldgraph/internal/call"
	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

type ListEntitiesInput struct {
	Type string `json:"type,omitempty" jsonschema:"entity type filter"`
}

type ListOperationsInput struct{}

type ArgumentInput struct {
	Kind   string   `json:"kind,omitempty" jsonschema:"empty, primitive or entities; inferred from ids and values when omitted"`
	IDs    []string `json:"ids,omitempty" jsonschema:"entity ids, for entity and entity-set parameters"`
	Values []any    `json:"values,omitempty" jsonschema:"primitive values"`
}

type InvokeInput struct {
	Operation string          `json:"operation" jsonschema:"operation short id or Type.name key"`
	Target    string          `json:"target,omitempty" jsonschema:"id of the invoking entity, omitted for operations on the root"`
	Args      []ArgumentInput `json:"args,omitempty" jsonschema:"one argument per parameter"`
}

type QueryKBInput struct {
	Query string `json:"query" jsonschema:"a single Datalog atom, e.g. triple(S, /list/items, O)"`
}

type QuerySQLInput struct {
	SQL    string         `json:"sql" jsonschema:"read-only SQL over the triples and entities tables"`
	Params map[string]any `json:"params,omitempty" jsonschema:"positional parameters keyed 1, 2, ..."`
}

type SearchInput struct {
	Query    string `json:"query" jsonschema:"search terms"`
	Relation string `json:"relation,omitempty" jsonschema:"restrict to a relation such as Board.title"`
}

type EntityOutput struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Members map[string]any `json:"members"`
}

type ListEntitiesOutput struct {
	State    string         `json:"state"`
	Entities []EntityOutput `json:"entities"`
}

type OperationOutput struct {
	ID     string   `json:"id"`
	Key    string   `json:"key"`
	OnRoot bool     `json:"on_root"`
	Params []string `json:"params"`
	Hints  []string `json:"hints,omitempty"`
}

type ListOperationsOutput struct {
	Domain     string            `json:"domain"`
	Operations []OperationOutput `json:"operations"`
}

type InvokeOutput struct {
	Call        string `json:"call,omitempty"`
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Dump        string `json:"dump,omitempty"`
}

type QueryKBOutput struct {
	Bindings []map[string]string `json:"bindings"`
}

type QuerySQLOutput struct {
	Rows []map[string]any `json:"rows"`
}

type SearchResultOutput struct {
	Subject  string  `json:"subject"`
	Relation string  `json:"relation"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List the entities of the current state with their members",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_operations",
		Description: "List the operations of the domain with short ids and parameter kinds",
	}, s.handleListOperations)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "invoke",
		Description: "Invoke an operation; on success the result becomes the current state",
	}, s.handleInvoke)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "query_kb",
		Description: "Query the knowledge triples of the current state with a Datalog atom",
	}, s.handleQueryKB)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "query_sql",
		Description: "Run read-only SQL over the knowledge triples of the current state",
	}, s.handleQuerySQL)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search",
		Description: "Full-text search over text-valued triples",
	}, s.handleSearch)
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	st := s.State()
	u := st.Universe()

	output := make([]EntityOutput, 0, st.Len())
	for i, e := range st.Entities() {
		t, err := u.TypeOf(e)
		if err != nil {
			return nil, ListEntitiesOutput{}, err
		}
		if input.Type != "" && !strings.EqualFold(t.Name, input.Type) {
			continue
		}
		id, err := st.IDAt(i)
		if err != nil {
			return nil, ListEntitiesOutput{}, err
		}
		members, err := memberValues(st, t, e)
		if err != nil {
			return nil, ListEntitiesOutput{}, err
		}
		output = append(output, EntityOutput{ID: id, Type: t.Name, Members: members})
	}
	return nil, ListEntitiesOutput{State: st.Token(), Entities: output}, nil
}

func (s *Server) handleListOperations(ctx context.Context, req *sdk.CallToolRequest, input ListOperationsInput) (*sdk.CallToolResult, ListOperationsOutput, error) {
	d := s.State().Domain()
	ops := d.Universe().Operations()

	output := make([]OperationOutput, 0, len(ops))
	for _, op := range ops {
		output = append(output, operationOutput(d, op))
	}
	return nil, ListOperationsOutput{Domain: d.Name, Operations: output}, nil
}

func (s *Server) handleInvoke(ctx context.Context, req *sdk.CallToolRequest, input InvokeInput) (*sdk.CallToolResult, InvokeOutput, error) {
	if input.Operation == "" {
		return nil, InvokeOutput{}, fmt.Errorf("operation is required")
	}
	st := s.State()

	args := make([]call.Argument, 0, len(input.Args)+1)
	if input.Target != "" {
		args = append(args, call.Entities(input.Target))
	}
	for i, a := range input.Args {
		arg, err := argumentFromInput(a)
		if err != nil {
			return nil, InvokeOutput{}, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args = append(args, arg)
	}

	if err := call.Check(st.Domain(), input.Operation, args...); err != nil {
		return nil, InvokeOutput{OK: false, Reason: err.Error(), State: st.Token()}, nil
	}
	c, _ := call.New(st.Domain(), input.Operation, args...)

	res, err := c.Invoke(ctx, st)
	if err != nil {
		return nil, InvokeOutput{}, err
	}
	if !res.OK() {
		return nil, InvokeOutput{Call: c.String(), OK: false, Reason: res.Reason, State: st.Token()}, nil
	}

	fp, err := res.State.Fingerprint()
	if err != nil {
		return nil, InvokeOutput{}, err
	}
	dump, err := res.State.Dump()
	if err != nil {
		return nil, InvokeOutput{}, err
	}
	if !s.replace(st.Token(), res.State) {
		return nil, InvokeOutput{
			Call:   c.String(),
			OK:     false,
			Reason: fmt.Sprintf("state %s was replaced during the invocation", st.Token()),
			State:  s.State().Token(),
		}, nil
	}
	s.logger.Info("state replaced",
		zap.Stringer("call", c),
		zap.String("state", res.State.Token()),
	)
	return nil, InvokeOutput{
		Call:        c.String(),
		OK:          true,
		State:       res.State.Token(),
		Fingerprint: fp,
		Dump:        dump,
	}, nil
}

func (s *Server) handleQueryKB(ctx context.Context, req *sdk.CallToolRequest, input QueryKBInput) (*sdk.CallToolResult, QueryKBOutput, error) {
	if input.Query == "" {
		return nil, QueryKBOutput{}, fmt.Errorf("query is required")
	}
	engine, err := s.kbEngine()
	if err != nil {
		return nil, QueryKBOutput{}, err
	}
	bindings, err := engine.Query(ctx, input.Query)
	if err != nil {
		return nil, QueryKBOutput{}, err
	}

	output := make([]map[string]string, 0, len(bindings))
	for _, b := range bindings {
		row := make(map[string]string, len(b))
		for name, term := range b {
			row[name] = term.String()
		}
		output = append(output, row)
	}
	return nil, QueryKBOutput{Bindings: output}, nil
}

func (s *Server) handleQuerySQL(ctx context.Context, req *sdk.CallToolRequest, input QuerySQLInput) (*sdk.CallToolResult, QuerySQLOutput, error) {
	if strings.TrimSpace(input.SQL) == "" {
		return nil, QuerySQLOutput{}, fmt.Errorf("sql is required")
	}
	index, err := s.sqlIndex(ctx)
	if err != nil {
		return nil, QuerySQLOutput{}, err
	}
	rows, err := index.RunSQL(ctx, input.SQL, input.Params)
	if err != nil {
		return nil, QuerySQLOutput{}, err
	}
	return nil, QuerySQLOutput{Rows: rows}, nil
}

func (s *Server) handleSearch(ctx context.Context, req *sdk.CallToolRequest, input SearchInput) (*sdk.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	index, err := s.sqlIndex(ctx)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	results, err := index.Search(ctx, input.Query, input.Relation)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, SearchResultOutput{
			Subject:  r.Subject,
			Relation: r.Relation,
			Text:     r.Text,
			Score:    r.Score,
			Snippet:  r.Snippet,
		})
	}
	return nil, SearchOutput{Results: output}, nil
}

func argumentFromInput(a ArgumentInput) (call.Argument, error) {
	switch strings.ToLower(a.Kind) {
	case "":
	case "empty":
		if len(a.IDs) > 0 || len(a.Values) > 0 {
			return call.Argument{}, fmt.Errorf("empty argument with ids or values")
		}
		return call.Empty(), nil
	case "primitive":
		if len(a.IDs) > 0 {
			return call.Argument{}, fmt.Errorf("primitive argument with ids")
		}
		return call.Primitive(a.Values...), nil
	case "entities":
		if len(a.Values) > 0 {
			return call.Argument{}, fmt.Errorf("entities argument with values")
		}
		return call.Entities(a.IDs...), nil
	default:
		return call.Argument{}, fmt.Errorf("unknown argument kind %q", a.Kind)
	}

	switch {
	case len(a.IDs) > 0 && len(a.Values) > 0:
		return call.Argument{}, fmt.Errorf("argument has both ids and values")
	case len(a.IDs) > 0:
		return call.Entities(a.IDs...), nil
	case len(a.Values) > 0:
		return call.Primitive(a.Values...), nil
	default:
		return call.Empty(), nil
	}
}

func operationOutput(d *entity.Domain, op *entity.Operation) OperationOutput {
	params := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		params = append(params, fmt.Sprintf("%s %s", p.Kind, p.GoType))
	}
	return OperationOutput{
		ID:     d.ShortID(op),
		Key:    op.Key(),
		OnRoot: op.OnRoot(),
		Params: params,
		Hints:  append([]string{}, op.Hints...),
	}
}

// memberValues renders the members of e: primitives as values, references
// as ids of st.
func memberValues(st *state.State, t *entity.Type, e entity.Entity) (map[string]any, error) {
	out := make(map[string]any, len(t.Members))
	for i := range t.Members {
		m := &t.Members[i]
		switch m.Kind {
		case entity.KindPrimitive:
			out[m.Name] = m.Primitive(e)
		case entity.KindPrimitiveSeq:
			out[m.Name] = m.Primitives(e)
		case entity.KindEntity:
			ref := m.Entity(e)
			if entity.IsNil(ref) {
				out[m.Name] = nil
				continue
			}
			id, err := st.EntityID(ref)
			if err != nil {
				return nil, err
			}
			out[m.Name] = id
		case entity.KindEntitySeq:
			refs := m.Entities(e)
			ids := make([]any, len(refs))
			for j, ref := range refs {
				if entity.IsNil(ref) {
					continue
				}
				id, err := st.EntityID(ref)
				if err != nil {
					return nil, err
				}
				ids[j] = id
			}
			out[m.Name] = ids
		}
	}
	return out, nil
}
