package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prtimeline/internal/core/teams"
	"prtimeline/internal/core/timeline"
	"prtimeline/internal/modkit"
	"prtimeline/internal/platform/config"
	perr "prtimeline/internal/platform/errors"
	phttp "prtimeline/internal/platform/net/http"
	kit "prtimeline/internal/platform/testkit"
	tldomain "prtimeline/internal/services/timeline/domain"
	timelinemod "prtimeline/internal/services/timeline/module"
	"prtimeline/internal/services/timeline/timelinetest"

	"github.com/go-chi/chi/v5"
)

func newAPI(t *testing.T, src *timelinetest.Source) *httptest.Server {
	t.Helper()
	cfg := config.New().Prefix("APITEST_")
	tl := timelinemod.New(modkit.Deps{Cfg: cfg}, timelinemod.Options{}, modkit.WithPorts(tldomain.Ports{Source: src}))

	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), Options{Config: cfg, Timeline: tl})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fixture() *timelinetest.Source {
	return &timelinetest.Source{
		Teams: []teams.Team{{Name: "core", Members: []string{"alice"}}, {Name: "infra", Members: []string{"bob"}}},
		PRs: []timeline.RawPullRequest{
			timelinetest.SimplePR(11, "alice", "bob", "2024-03-01T09:00:00Z"),
			timelinetest.SimplePR(12, "bob", "alice", "2024-03-02T09:00:00Z"),
			timelinetest.SimplePR(13, "alice", "bob", "2024-03-03T09:00:00Z"),
		},
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	var sb strings.Builder
	if _, err := sb.ReadFrom(res.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, sb.String()
}

func TestHealthz(t *testing.T) {
	srv := newAPI(t, fixture())
	res, body := get(t, srv.URL+"/healthz")
	if res.StatusCode != http.StatusOK || strings.TrimSpace(body) != `{"status":"ok"}` {
		t.Fatalf("healthz = %d %s", res.StatusCode, body)
	}
	if res.Header.Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestReadyzWithoutBackends(t *testing.T) {
	srv := newAPI(t, fixture())
	res, body := get(t, srv.URL+"/readyz")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("readyz = %d %s", res.StatusCode, body)
	}
	kit.MustContain(t, body, `"status":"skipped"`)
}

func TestVersion(t *testing.T) {
	srv := newAPI(t, fixture())
	res, body := get(t, srv.URL+"/version")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("version = %d", res.StatusCode)
	}
	kit.MustContain(t, body, `"service":"prtimeline-api"`)
	kit.MustContain(t, body, `"go_version"`)
}

func TestTimelinesJSON(t *testing.T) {
	src := fixture()
	srv := newAPI(t, src)
	res, body := get(t, srv.URL+"/v1/repos/acme/widgets/timelines?total=2&org=acme-eng")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("timelines = %d %s", res.StatusCode, body)
	}

	var env struct {
		Data []struct {
			Number         int      `json:"number"`
			AuthoringTeams []string `json:"authoring_teams"`
			ReviewingTeams []string `json:"reviewing_teams"`
			Events         []struct {
				Kind        string  `json:"kind"`
				ReviewState *string `json:"review_state"`
			} `json:"events"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 2 || env.Data[0].Number != 11 || env.Data[1].Number != 12 {
		t.Fatalf("data = %+v", env.Data)
	}
	first := env.Data[0]
	if first.AuthoringTeams[0] != "core" || first.ReviewingTeams[0] != "infra" {
		t.Fatalf("teams = %+v", first)
	}
	if len(first.Events) != 2 || first.Events[0].ReviewState != nil || first.Events[1].ReviewState == nil {
		t.Fatalf("events = %+v", first.Events)
	}

	reqs := src.Requests()
	if reqs[0].Owner != "acme-eng" || reqs[1].Owner != "acme" || reqs[1].Name != "widgets" || reqs[1].Limit != 2 {
		t.Fatalf("requests = %+v", reqs)
	}
}

func TestTimelinesTSV(t *testing.T) {
	srv := newAPI(t, fixture())
	res, body := get(t, srv.URL+"/v1/repos/acme/widgets/timelines.tsv")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("tsv = %d %s", res.StatusCode, body)
	}
	kit.MustContain(t, res.Header.Get("Content-Type"), "text/tab-separated-values")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 7 || !strings.HasPrefix(lines[0], "timestamp\t") {
		t.Fatalf("tsv lines = %q", lines)
	}
}

func TestUnknownRouteIsEnveloped(t *testing.T) {
	srv := newAPI(t, fixture())
	for _, path := range []string{"/nope", "/v1/repos/acme"} {
		res, body := get(t, srv.URL+path)
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: status = %d", path, res.StatusCode)
		}
		var env phttp.Envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			t.Fatalf("%s: body %q: %v", path, body, err)
		}
		if env.Code != perr.ErrorCodeNotFound || env.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: envelope = %+v", path, env)
		}
		kit.MustContain(t, env.Error, path)
	}
}

func TestTimelinesErrors(t *testing.T) {
	cases := []struct {
		name   string
		src    *timelinetest.Source
		path   string
		status int
		field  string
	}{
		{"total too large", fixture(), "/v1/repos/acme/widgets/timelines?total=5000", http.StatusUnprocessableEntity, "total"},
		{"total not a number", fixture(), "/v1/repos/acme/widgets/timelines?total=lots", http.StatusUnprocessableEntity, "total"},
		{"source down", &timelinetest.Source{Fail: 1, FailErr: errors.New("github down")}, "/v1/repos/acme/widgets/timelines", http.StatusBadGateway, ""},
		{"unknown route", fixture(), "/v1/repos/acme", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newAPI(t, tc.src)
			res, body := get(t, srv.URL+tc.path)
			if res.StatusCode != tc.status {
				t.Fatalf("status = %d %s", res.StatusCode, body)
			}
			if tc.field != "" {
				var env phttp.Envelope
				if err := json.Unmarshal([]byte(body), &env); err != nil || env.Field != tc.field {
					t.Fatalf("envelope = %+v err = %v", env, err)
				}
			}
		})
	}
}
