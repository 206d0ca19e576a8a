package extractor

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/crimson-sun/logstream/internal/model"
)

func httpRecord(method, path string, attrs map[string]any) model.LogRecord {
	return model.LogRecord{
		SourceType: model.SourceHTTP,
		HTTP:       &model.HTTPFields{Method: method, Path: path, StatusCode: 200},
		Attributes: attrs,
	}
}

func TestReplay(t *testing.T) {
	rec := httpRecord("POST", "/login?token=abc&page=2", map[string]any{
		"http.host":            "api.example.com",
		"http.request_headers": map[string]any{"Authorization": "Bearer xyz", "Accept": "*/*"},
		"http.request_body":    `{"user":"ann","password":"p4ss"}`,
	})

	got, ok := Replay(rec)
	if !ok {
		t.Fatal("Replay() reported no request")
	}
	want := `curl -X POST \
  -H 'Accept: */*' \
  -H 'Authorization: [REDACTED]' \
  -H 'Content-Type: application/json' \
  -d '{"password":"[REDACTED]","user":"ann"}' \
  'https://api.example.com/login?page=2&token=[REDACTED]'`
	if got != want {
		t.Errorf("Replay() =\n%s\nwant\n%s", got, want)
	}
}

func TestReplayDropsBodyForGET(t *testing.T) {
	got, ok := Replay(httpRecord("GET", "/search", map[string]any{"body": "q=1"}))
	if !ok {
		t.Fatal("Replay() reported no request")
	}
	if strings.Contains(got, "-d") || strings.Contains(got, "Content-Type") {
		t.Errorf("GET replay carries a body: %s", got)
	}
	if !strings.HasSuffix(got, "'http://localhost:3000/search'") {
		t.Errorf("default host not used: %s", got)
	}
}

func TestReplayFormBody(t *testing.T) {
	got, _ := Replay(httpRecord("PUT", "/form", map[string]any{
		"http.request_body": "name=o'neil&api_key=k1",
		"headers":           map[string]any{"content-type": "application/x-www-form-urlencoded", "X-Note": "it's"},
	}))
	if !strings.Contains(got, `-d 'api_key=[REDACTED]&name=o%27neil'`) {
		t.Errorf("form body not redacted: %s", got)
	}
	if !strings.Contains(got, `-H 'X-Note: it'\''s'`) {
		t.Errorf("header not shell quoted: %s", got)
	}
	if strings.Contains(got, "application/json") {
		t.Errorf("explicit content type overridden: %s", got)
	}
}

func TestReplayFileRequest(t *testing.T) {
	rec := model.LogRecord{
		SourceType: model.SourceFile,
		File:       &model.FileFields{Path: "/var/log/access.log", Request: &model.RequestLine{Method: "GET", Path: "/"}},
	}
	if got, ok := Replay(rec); !ok || got != "curl -X GET \\\n  'http://localhost:3000/'" {
		t.Errorf("Replay() = %q, %v", got, ok)
	}
}

func TestReplayRejectsShellInMethod(t *testing.T) {
	for _, method := range []string{"GET; TOUCH /TMP/PWNED #", "GET$(ID)", "POST\nRM", ""} {
		got, ok := Replay(httpRecord(method, "/x", nil))
		if ok {
			t.Errorf("Replay() accepted method %q: %s", method, got)
		}
	}
}

func TestReplayUnavailable(t *testing.T) {
	for _, rec := range []model.LogRecord{
		{SourceType: model.SourceHTTP},
		{SourceType: model.SourceFile, File: &model.FileFields{Path: "/x"}},
		{SourceType: model.SourceDocker, Docker: &model.DockerFields{ContainerName: "web"}},
		{SourceType: model.SourceUnknown},
	} {
		if _, ok := Replay(rec); ok {
			t.Errorf("Replay(%s) reported a request", rec.SourceType)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"password", "X-Api-Key", "api_key", "Authorization", "client_secret", "refreshToken", "Set-Cookie", "PASSWD"} {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false", k)
		}
	}
	for _, k := range []string{"user", "path", "keyboard", "author"} {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true", k)
		}
	}
}

func TestRedactNested(t *testing.T) {
	in := map[string]any{
		"user":  map[string]any{"name": "ann", "token": "t"},
		"items": []any{map[string]any{"secret": "s"}},
	}
	out := Redact(in).(map[string]any)
	if out["user"].(map[string]any)["token"] != Redacted {
		t.Errorf("nested token not redacted: %v", out)
	}
	if out["items"].([]any)[0].(map[string]any)["secret"] != Redacted {
		t.Errorf("secret in array not redacted: %v", out)
	}
	if in["user"].(map[string]any)["token"] != "t" {
		t.Error("Redact modified its input")
	}
}

func TestReplayNeverLeaksSecrets(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("sensitive values never appear in replay", prop.ForAll(
		func(id string, method string) bool {
			secret := "ZQ" + id + "QZ"
			rec := httpRecord(method, "/p?access_token="+secret, map[string]any{
				"http.request_headers": map[string]any{"Cookie": "sid=" + secret},
				"http.request_body":    map[string]any{"nested": map[string]any{"password": secret}},
				"http.query":           map[string]any{"apiKey": secret},
			})
			got, ok := Replay(rec)
			return ok && !strings.Contains(got, secret)
		},
		gen.Identifier(),
		gen.OneConstOf("GET", "POST", "PUT", "PATCH", "DELETE"),
	))

	properties.TestingRun(t)
}
