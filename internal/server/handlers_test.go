package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"infocollect/internal/shared"

	"github.com/sirupsen/logrus/hooks/test"
)

func newTestAPI() (*API, *test.Hook) {
	log, hook := test.NewNullLogger()
	return NewAPI(log, shared.DefaultServerConfig()), hook
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, shared.CollectPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a JSON object: %v (%q)", err, rec.Body.String())
	}
	return env
}

func compact(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestInfoCollectEchoesPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"object", `{"name": "alice", "age": 30}`},
		{"array", `[1, 2, 3]`},
		{"null", `null`},
		{"string", `"hello"`},
		{"number", `-12.5e3`},
		{"bool", `false`},
		{"nested", `{"ssid":"home","lanIp":"192.168.1.7","wanIpInfo":{"ip":"1.2.3.4","asn":4134},"tags":[]}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api, hook := newTestAPI()
			rec := post(t, api.Routes(), tc.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("Content-Type = %q", ct)
			}
			env := decodeEnvelope(t, rec)
			if string(env["success"]) != "true" {
				t.Fatalf("success = %s, want true", env["success"])
			}
			data, ok := env["data"]
			if !ok {
				t.Fatal("data missing from success envelope")
			}
			if got, want := string(data), compact(t, tc.body); got != want {
				t.Fatalf("data = %s, want %s", got, want)
			}
			if _, ok := env["error"]; ok {
				t.Fatal("error present in success envelope")
			}

			if len(hook.Entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(hook.Entries))
			}
			if got := hook.LastEntry().Message; got != compact(t, tc.body) {
				t.Fatalf("logged %q", got)
			}
		})
	}
}

func TestInfoCollectScenarioBodies(t *testing.T) {
	api, _ := newTestAPI()

	rec := post(t, api.Routes(), `{"name": "alice", "age": 30}`)
	if got, want := rec.Body.String(), `{"success":true,"data":{"name":"alice","age":30}}`+"\n"; got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}

	rec = post(t, api.Routes(), `null`)
	if got, want := rec.Body.String(), `{"success":true,"data":null}`+"\n"; got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}

func TestInfoCollectDeepEqual(t *testing.T) {
	api, _ := newTestAPI()
	bodies := []string{
		`{"a":[1,{"b":null}],"c":"é\n<tag>"}`,
		`[true,false,null,0,-0.5,"x"]`,
		`"😀"`,
		`12345678901234567890`,
	}
	for _, body := range bodies {
		rec := post(t, api.Routes(), body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}

		var want any
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&want); err != nil {
			t.Fatal(err)
		}

		var env struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}
		dec = json.NewDecoder(rec.Body)
		dec.UseNumber()
		if err := dec.Decode(&env); err != nil {
			t.Fatal(err)
		}
		if !env.Success || !reflect.DeepEqual(env.Data, want) {
			t.Fatalf("%s: got %#v, want %#v", body, env.Data, want)
		}
	}
}

func TestInfoCollectMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"plain text", `not-json`},
		{"empty", ``},
		{"whitespace", "  \n"},
		{"truncated object", `{"name": "alice", "age": `},
		{"truncated array", `[1, 2`},
		{"trailing garbage", `{"a":1} x`},
		{"two values", `1 2`},
		{"trailing comma", `[1,]`},
		{"single quotes", `{'a': 1}`},
		{"invalid utf-8", "\"a\xffb\""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api, hook := newTestAPI()
			rec := post(t, api.Routes(), tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if string(env["success"]) != "false" {
				t.Fatalf("success = %s, want false", env["success"])
			}
			var msg string
			if err := json.Unmarshal(env["error"], &msg); err != nil || msg == "" {
				t.Fatalf("error = %s, want non-empty string", env["error"])
			}
			if !strings.HasPrefix(msg, "failed to decode JSON object: ") {
				t.Fatalf("error = %q", msg)
			}
			if _, ok := env["data"]; ok {
				t.Fatal("data present in failure envelope")
			}
			if len(hook.Entries) != 0 {
				t.Fatalf("failure was logged: %v", hook.LastEntry().Message)
			}
		})
	}
}

func TestInfoCollectManyKeys(t *testing.T) {
	api, _ := newTestAPI()

	const n = 100000
	var sb strings.Builder
	sb.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, `"key%d":%d`, i, i)
	}
	sb.WriteByte('}')

	start := time.Now()
	rec := post(t, api.Routes(), sb.String())
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("%d keys took %s", n, elapsed)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := string(decodeEnvelope(t, rec)["data"]); got != sb.String() {
		t.Fatal("echoed object differs from request")
	}
}

func TestInfoCollectIgnoresContentType(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, shared.CollectPath, strings.NewReader(`{"k":"v"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestInfoCollectIdempotent(t *testing.T) {
	api, _ := newTestAPI()
	body := `{"z":1,"a":[1.50,"x"],"m":{"k":null}}`

	first := decodeEnvelope(t, post(t, api.Routes(), body))
	second := decodeEnvelope(t, post(t, api.Routes(), body))
	if !bytes.Equal(first["data"], second["data"]) {
		t.Fatalf("data differs: %s vs %s", first["data"], second["data"])
	}
}

func TestInfoCollectStateless(t *testing.T) {
	api, _ := newTestAPI()
	h := api.Routes()

	if rec := post(t, h, `{"broken":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec := post(t, h, `{"ok":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := string(decodeEnvelope(t, rec)["data"]); got != `{"ok":true}` {
		t.Fatalf("data = %s", got)
	}
}

func TestInfoCollectMethodNotAllowed(t *testing.T) {
	api, hook := newTestAPI()
	req := httptest.NewRequest(http.MethodGet, shared.CollectPath, nil)
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow = %q", allow)
	}
	env := decodeEnvelope(t, rec)
	if string(env["success"]) != "false" {
		t.Fatalf("success = %s", env["success"])
	}
	if len(hook.Entries) != 0 {
		t.Fatal("405 was logged")
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, "/other", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	api.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestInfoCollectBodyTooLarge(t *testing.T) {
	api, hook := newTestAPI()
	api.MaxBodyBytes = 8

	rec := post(t, api.Routes(), `[1,2,3,4,5,6,7,8]`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var msg string
	_ = json.Unmarshal(decodeEnvelope(t, rec)["error"], &msg)
	if !strings.Contains(msg, "too large") {
		t.Fatalf("error = %q", msg)
	}
	if len(hook.Entries) != 0 {
		t.Fatal("oversized body was logged")
	}
}
