package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"rightmove_tools/internal/adapters/observability"
	"rightmove_tools/internal/domain"
)

const (
	ToolSearchProperties   = "search_properties"
	ToolGetPropertyDetails = "get_property_details"
	ToolGetAreaStatistics  = "get_area_statistics"
)

type FailureKind string

const (
	InvalidArguments  FailureKind = "InvalidArguments"
	TransportFailure  FailureKind = "TransportFailure"
	ResolutionFailure FailureKind = "ResolutionFailure"
	UnknownTool       FailureKind = "UnknownTool"
)

type Failure struct {
	Kind    FailureKind
	Message string
}

// Outcome is the result of one dispatch: exactly one of Record and Failure is set.
type Outcome struct {
	Tool    string
	Record  any
	Failure *Failure
}

func (o Outcome) OK() bool { return o.Failure == nil }

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the uniform wire shape of a tool result.
type Envelope struct {
	Content   []Content   `json:"content"`
	IsError   bool        `json:"isError,omitempty"`
	ErrorKind FailureKind `json:"errorKind,omitempty"`
}

var errorPrefixes = map[string]string{
	ToolSearchProperties:   "Error searching properties: ",
	ToolGetPropertyDetails: "Error fetching property details: ",
	ToolGetAreaStatistics:  "Error fetching area statistics: ",
}

// Envelope renders the outcome. Records are serialized as indented JSON text.
func (o Outcome) Envelope() Envelope {
	if o.Failure != nil {
		text := o.Failure.Message
		if p, ok := errorPrefixes[o.Tool]; ok && o.Failure.Kind != InvalidArguments {
			text = p + text
		}
		return Envelope{
			Content:   []Content{{Type: "text", Text: text}},
			IsError:   true,
			ErrorKind: o.Failure.Kind,
		}
	}
	body, err := json.MarshalIndent(o.Record, "", "  ")
	if err != nil {
		return Envelope{
			Content:   []Content{{Type: "text", Text: "encode result: " + err.Error()}},
			IsError:   true,
			ErrorKind: TransportFailure,
		}
	}
	return Envelope{Content: []Content{{Type: "text", Text: string(body)}}}
}

type handler func(ctx context.Context, args json.RawMessage) (any, *Failure)

type tool struct {
	Tool
	schema *jsonschema.Schema
	run    handler
}

// Router maps tool names onto PropertyService operations.
type Router struct {
	svc   *PropertyService
	tools map[string]*tool
	order []string
}

func NewRouter(svc *PropertyService) (*Router, error) {
	r := &Router{svc: svc, tools: make(map[string]*tool)}
	defs := []struct {
		name, desc string
		run        handler
	}{
		{ToolSearchProperties, "Search for properties on Rightmove", r.search},
		{ToolGetPropertyDetails, "Get detailed information about a specific property", r.details},
		{ToolGetAreaStatistics, "Get price statistics and market data for an area", r.statistics},
	}
	for _, d := range defs {
		raw, schema, err := loadSchema(d.name)
		if err != nil {
			return nil, err
		}
		r.tools[d.name] = &tool{
			Tool:   Tool{Name: d.name, Description: d.desc, InputSchema: raw},
			schema: schema,
			run:    d.run,
		}
		r.order = append(r.order, d.name)
	}
	return r, nil
}

// Tools lists the callable tools in declaration order.
func (r *Router) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Tool)
	}
	return out
}

// Dispatch validates args against the tool's schema and runs it. It never
// panics or returns an error: every path ends in an Outcome, and a panic in
// a handler becomes a TransportFailure.
func (r *Router) Dispatch(ctx context.Context, name string, args json.RawMessage) (out Outcome) {
	start := time.Now()
	callID := uuid.NewString()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("call_id", callID).
				Str("tool", name).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("tool panicked")
			out = fail(name, TransportFailure, fmt.Sprintf("internal error: %v", rec))
		}
		kind := "ok"
		ev := log.Info()
		if out.Failure != nil {
			kind = string(out.Failure.Kind)
			ev = log.Warn().Str("error", out.Failure.Message)
		}
		observability.ObserveTool(name, kind, time.Since(start))
		ev.Str("call_id", callID).
			Str("tool", name).
			Str("outcome", kind).
			Dur("duration", time.Since(start)).
			Msg("tool_call")
	}()

	t, ok := r.tools[name]
	if !ok {
		return fail(name, UnknownTool, fmt.Sprintf("Unknown tool: %s", name))
	}

	args = normalizeArgs(args)
	var generic any
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fail(name, InvalidArguments, "arguments are not valid JSON: "+err.Error())
	}
	if err := t.schema.Validate(generic); err != nil {
		return fail(name, InvalidArguments, "invalid arguments: "+validationMessage(err))
	}

	rec, f := t.run(ctx, args)
	if f != nil {
		return Outcome{Tool: name, Failure: f}
	}
	return Outcome{Tool: name, Record: rec}
}

type searchArgs struct {
	Location     string   `json:"location"`
	MinPrice     *float64 `json:"minPrice"`
	MaxPrice     *float64 `json:"maxPrice"`
	PropertyType *string  `json:"propertyType"`
	Bedrooms     *float64 `json:"bedrooms"`
	Radius       *float64 `json:"radius"`
	SortType     *float64 `json:"sortType"`
	Index        *float64 `json:"index"`
}

// params converts schema-valid arguments and applies the cross-field checks
// the schema cannot express.
func (a searchArgs) params() (domain.SearchParams, error) {
	p := domain.SearchParams{
		Location: strings.TrimSpace(a.Location),
		MinPrice: a.MinPrice,
		MaxPrice: a.MaxPrice,
		Radius:   a.Radius,
		Bedrooms: toInt(a.Bedrooms),
		SortType: toInt(a.SortType),
		Index:    toInt(a.Index),
	}
	if p.Location == "" {
		return p, errors.New("location must not be blank")
	}
	if a.PropertyType != nil {
		pt := domain.PropertyType(*a.PropertyType)
		p.PropertyType = &pt
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return p, fmt.Errorf("minPrice %v is greater than maxPrice %v", *p.MinPrice, *p.MaxPrice)
	}
	return p, nil
}

func (r *Router) search(ctx context.Context, args json.RawMessage) (any, *Failure) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, &Failure{InvalidArguments, "invalid arguments: " + err.Error()}
	}
	p, err := a.params()
	if err != nil {
		return nil, &Failure{InvalidArguments, "invalid arguments: " + err.Error()}
	}
	res, err := r.svc.Search(ctx, p)
	if err != nil {
		return nil, classify(err)
	}
	res.SearchParams = args
	return res, nil
}

func (r *Router) details(ctx context.Context, args json.RawMessage) (any, *Failure) {
	var a struct {
		PropertyID string `json:"propertyId"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, &Failure{InvalidArguments, "invalid arguments: " + err.Error()}
	}
	id := strings.TrimSpace(a.PropertyID)
	if id == "" {
		return nil, &Failure{InvalidArguments, "invalid arguments: propertyId must not be blank"}
	}
	d, err := r.svc.Details(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return d, nil
}

func (r *Router) statistics(ctx context.Context, args json.RawMessage) (any, *Failure) {
	var a struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, &Failure{InvalidArguments, "invalid arguments: " + err.Error()}
	}
	loc := strings.TrimSpace(a.Location)
	if loc == "" {
		return nil, &Failure{InvalidArguments, "invalid arguments: location must not be blank"}
	}
	st, err := r.svc.Statistics(ctx, loc)
	if err != nil {
		return nil, classify(err)
	}
	return st, nil
}

func classify(err error) *Failure {
	if errors.Is(err, domain.ErrLocationUnresolved) {
		return &Failure{ResolutionFailure, err.Error()}
	}
	return &Failure{TransportFailure, err.Error()}
}

func fail(tool string, kind FailureKind, msg string) Outcome {
	return Outcome{Tool: tool, Failure: &Failure{Kind: kind, Message: msg}}
}

// normalizeArgs treats absent and null arguments as an empty object.
func normalizeArgs(args json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}

// validationMessage flattens a schema error to its leaf causes.
func validationMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

func toInt(f *float64) *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
