package jsonrpc_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"rightmove_tools/internal/adapters/jsonrpc"
	"rightmove_tools/internal/app"
)

type fakeDispatcher struct{ calls atomic.Int32 }

func (f *fakeDispatcher) Tools() []app.Tool {
	return []app.Tool{{Name: "search_properties", Description: "d", InputSchema: json.RawMessage(`{"type":"object"}`)}}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) app.Outcome {
	f.calls.Add(1)
	switch name {
	case "search_properties":
		return app.Outcome{Tool: name, Record: map[string]string{"echo": string(args)}}
	case "get_property_details":
		return app.Outcome{Tool: name, Failure: &app.Failure{Kind: app.TransportFailure, Message: "boom"}}
	default:
		return app.Outcome{Tool: name, Failure: &app.Failure{Kind: app.UnknownTool, Message: "Unknown tool: " + name}}
	}
}

type reply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func serve(t *testing.T, d jsonrpc.Dispatcher, lines ...string) map[string]reply {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := jsonrpc.New(d, "rightmove-tools", "test", 4).Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("serve: %v", err)
	}
	replies := map[string]reply{}
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r reply
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad response line %q: %v", sc.Text(), err)
		}
		replies[string(r.ID)] = r
	}
	return replies
}

func TestServe_InitializeAndList(t *testing.T) {
	replies := serve(t, &fakeDispatcher{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":"p","method":"ping"}`,
	)
	if len(replies) != 3 {
		t.Fatalf("expected 3 replies (notification unanswered), got %d: %v", len(replies), replies)
	}

	var init struct {
		ServerInfo struct{ Name string } `json:"serverInfo"`
	}
	if err := json.Unmarshal(replies["1"].Result, &init); err != nil || init.ServerInfo.Name != "rightmove-tools" {
		t.Fatalf("unexpected initialize result %s (%v)", replies["1"].Result, err)
	}

	var list struct{ Tools []app.Tool }
	if err := json.Unmarshal(replies["2"].Result, &list); err != nil {
		t.Fatalf("decode tools/list: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "search_properties" {
		t.Fatalf("unexpected tools %+v", list.Tools)
	}
	if _, ok := replies[`"p"`]; !ok {
		t.Fatalf("ping not answered")
	}
}

func TestServe_ToolCalls(t *testing.T) {
	d := &fakeDispatcher{}
	replies := serve(t, d,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_properties","arguments":{"location":"Leeds"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_property_details","arguments":{"propertyId":"1"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope"}}`,
	)
	if d.calls.Load() != 3 {
		t.Fatalf("expected 3 dispatches, got %d", d.calls.Load())
	}

	var ok app.Envelope
	if err := json.Unmarshal(replies["1"].Result, &ok); err != nil || ok.IsError {
		t.Fatalf("unexpected success envelope %s (%v)", replies["1"].Result, err)
	}
	if !strings.Contains(ok.Content[0].Text, "Leeds") {
		t.Fatalf("arguments not forwarded: %s", ok.Content[0].Text)
	}

	var bad app.Envelope
	if err := json.Unmarshal(replies["2"].Result, &bad); err != nil {
		t.Fatalf("decode failure envelope: %v", err)
	}
	if !bad.IsError || bad.ErrorKind != app.TransportFailure || bad.Content[0].Text != "Error fetching property details: boom" {
		t.Fatalf("unexpected failure envelope %+v", bad)
	}

	if replies["3"].Error == nil || replies["3"].Error.Code != -32602 {
		t.Fatalf("expected invalid params error for unknown tool, got %+v", replies["3"])
	}
}

func TestServe_ProtocolErrors(t *testing.T) {
	replies := serve(t, &fakeDispatcher{},
		`{not json`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":"oops"}`,
	)
	if r := replies["null"]; r.Error == nil || r.Error.Code != -32700 {
		t.Fatalf("expected parse error with null id, got %+v", r)
	}
	if r := replies["7"]; r.Error == nil || r.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", r)
	}
	if r := replies["8"]; r.Error == nil || r.Error.Code != -32602 {
		t.Fatalf("expected invalid params, got %+v", r)
	}
}
