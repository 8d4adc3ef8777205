package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ninelmnts/leadintake/internal/adapters/http/api"
	"github.com/ninelmnts/leadintake/internal/adapters/sink"
	service "github.com/ninelmnts/leadintake/internal/app"
	"github.com/ninelmnts/leadintake/internal/domain/lead"
	"github.com/ninelmnts/leadintake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

// mockService records what the handlers hand over.
type mockService struct {
	mu        sync.Mutex
	submitted []lead.Lead
	ctxErr    error
	report    service.Report
	relayRes  service.RelayResult
	relayErr  error
}

func (m *mockService) Submit(ctx context.Context, l lead.Lead) service.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, l)
	m.ctxErr = ctx.Err()
	return m.report
}

func (m *mockService) Relay(ctx context.Context, l lead.Lead) (service.RelayResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, l)
	return m.relayRes, m.relayErr
}

func (m *mockService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submitted)
}

func newMux(svc api.LeadService, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestLeadHandler(t *testing.T) {
	Convey("Given the lead intake routes", t, func() {
		svc := &mockService{report: service.Report{
			Forward: sink.Result{OK: true, Status: 200, Data: "accepted"},
			Saved:   sink.Failed(sink.ErrSupabaseEnvMissing),
			Integrations: service.Integrations{
				Slack:  sink.Failed(sink.ErrSlackEnvMissing),
				Notion: sink.Failed(sink.ErrNotionEnvMissing),
				Email:  sink.Failed(sink.ErrNotImplemented),
			},
		}}
		mux := newMux(svc)

		for _, path := range []string{"/", "/ai-empire-lead-submission"} {
			Convey("When a non-POST request reaches "+path, func() {
				w := do(mux, http.MethodGet, path, "")

				Convey("Then it is rejected with 405 and no sink runs", func() {
					So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
					So(w.Body.String(), ShouldEqual, `{"error":"Method not allowed, POST only"}`+"\n")
					So(svc.calls(), ShouldEqual, 0)
				})
			})

			Convey("When a valid lead is posted to "+path, func() {
				w := do(mux, http.MethodPost, path, `{"name":"Ada","email":"ada@example.com","budget":"$5k"}`)

				Convey("Then the report is returned with 200", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
					var body map[string]any
					So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
					So(body, ShouldContainKey, "forward")
					So(body, ShouldContainKey, "saved")
					integrations := body["integrations"].(map[string]any)
					So(integrations["email"], ShouldResemble, map[string]any{"ok": false, "error": "not implemented"})
					So(svc.calls(), ShouldEqual, 1)
					So(svc.submitted[0].Budget(), ShouldEqual, "$5k")
				})
			})
		}

		Convey("When name or email is missing", func() {
			for _, body := range []string{`{"email":"ada@example.com"}`, `{"name":"Ada","email":""}`, `{"name":0,"email":"b@c"}`, `{"name":"Ada","email":`, ``} {
				w := do(mux, http.MethodPost, "/", body)

				Convey("Then it answers 400 for "+body, func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(w.Body.String(), ShouldEqual, `{"error":"Missing name or email"}`+"\n")
				})
			}

			Convey("Then no sink runs", func() {
				So(svc.calls(), ShouldEqual, 0)
			})
		})

		Convey("When name is a number", func() {
			w := do(mux, http.MethodPost, "/", `{"name":123,"email":"b@c"}`)

			Convey("Then it is accepted and the number reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(svc.calls(), ShouldEqual, 1)
				So(svc.submitted[0].NameValue(), ShouldEqual, json.Number("123"))
			})
		})

		Convey("When the caller's context is canceled mid-request", func() {
			ctx, cancel := context.WithCancel(context.Background())
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`)).WithContext(ctx)
			cancel()
			mux.ServeHTTP(httptest.NewRecorder(), req)

			Convey("Then the service sees a context that is not canceled", func() {
				So(svc.calls(), ShouldEqual, 1)
				So(svc.ctxErr, ShouldBeNil)
			})
		})

		Convey("When an unknown path is requested", func() {
			w := do(mux, http.MethodPost, "/nope", `{"name":"Ada","email":"ada@example.com"}`)

			Convey("Then it is a 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(svc.calls(), ShouldEqual, 0)
			})
		})

		Convey("When OPTIONS arrives without CORS configured", func() {
			w := do(mux, http.MethodOptions, "/", "")

			Convey("Then it is treated like any other non-POST", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}

func TestHandlersWithUnreachableDownstreams(t *testing.T) {
	Convey("Given a real service with nothing configured and a dead forward target", t, func() {
		dead := httptest.NewServer(http.NotFoundHandler())
		closedURL := dead.URL
		dead.Close()
		mux := newMux(service.New(service.WithForwarder(sink.NewForwarder(closedURL))))

		Convey("When a valid lead is submitted", func() {
			w := do(mux, http.MethodPost, "/", `{"name":"Ada","email":"ada@example.com"}`)

			Convey("Then it still answers 200 and every sink reports its failure", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report service.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.Forward.OK, ShouldBeFalse)
				So(report.Forward.Error, ShouldNotBeEmpty)
				So(report.Saved.OK, ShouldBeFalse)
				So(report.Saved.Error, ShouldEqual, "Supabase env missing")
				So(report.Integrations.Slack.Error, ShouldEqual, "Slack webhook missing")
				So(report.Integrations.Notion.Error, ShouldEqual, "Notion env missing")
				So(report.Integrations.Email.OK, ShouldBeFalse)
			})
		})

		Convey("When the same lead goes through the relay", func() {
			w := do(mux, http.MethodPost, "/ai-empire-lead", `{"name":"Ada","email":"ada@example.com"}`)

			Convey("Then the failure is a generic 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"Failed to process lead"}`+"\n")
			})
		})
	})
}

func TestRelayHandler(t *testing.T) {
	Convey("Given the relay route", t, func() {
		svc := &mockService{}
		mux := newMux(svc)
		valid := `{"name":"Ada","email":"ada@example.com","budget":"12000"}`

		Convey("When the relay succeeds", func() {
			svc.relayRes = service.RelayResult{Success: true, Message: "Lead processed by AI Empire", AIResult: map[string]any{"qualification_score": 80}, SupabaseID: 7}
			w := do(mux, http.MethodPost, "/ai-empire-lead", valid)

			Convey("Then the result is returned with 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, `{"success":true,"message":"Lead processed by AI Empire","ai_result":{"qualification_score":80},"supabase_id":7}`+"\n")
			})
		})

		Convey("When the automation rejects the lead", func() {
			svc.relayErr = &service.RelayError{Kind: service.ErrForwardFailed, Status: 502}
			w := do(mux, http.MethodPost, "/ai-empire-lead", valid)

			Convey("Then the upstream status is reported with 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"Failed to forward to AI Empire","status":502}`+"\n")
			})
		})

		Convey("When storing the scored row fails", func() {
			svc.relayErr = &service.RelayError{Kind: service.ErrStoreFailed, AIResult: map[string]any{"tier": "A"}, StoreError: "Supabase env missing"}
			w := do(mux, http.MethodPost, "/ai-empire-lead", valid)

			Convey("Then the automation output is still returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"AI Empire processed but Supabase storage failed","ai_result":{"tier":"A"},"supabase_error":"Supabase env missing"}`+"\n")
			})
		})

		Convey("When the relay fails for another reason", func() {
			svc.relayErr = &service.RelayError{Kind: service.ErrRelayFailed, Err: errors.New("decode")}
			w := do(mux, http.MethodPost, "/ai-empire-lead", valid)

			Convey("Then a generic 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"Failed to process lead"}`+"\n")
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/ai-empire-lead", `{"name":`)

			Convey("Then it is a generic 500 and the service is not called", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldEqual, `{"error":"Failed to process lead"}`+"\n")
				So(svc.calls(), ShouldEqual, 0)
			})
		})

		Convey("When the method is not POST", func() {
			w := do(mux, http.MethodGet, "/ai-empire-lead", "")

			Convey("Then it is a 405", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(&mockService{})

		Convey("When /healthz is requested", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, `{"status":"ok"}`+"\n")
			})
		})

		Convey("When /metrics is requested after some traffic", func() {
			_ = do(mux, http.MethodPost, "/", `{"name":"Ada","email":"ada@example.com"}`)
			w := do(mux, http.MethodGet, "/metrics", "")

			Convey("Then the lead counters are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "leadintake_leads_received_total")
				So(w.Body.String(), ShouldContainSubstring, "leadintake_http_requests_total")
			})
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given a server with CORS enabled", t, func() {
		svc := &mockService{}
		mux := newMux(svc, api.WithCORSOrigin("*"))

		Convey("When a preflight request arrives", func() {
			w := do(mux, http.MethodOptions, "/ai-empire-lead-submission", "")

			Convey("Then it answers 204 with CORS headers", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
				So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, "POST")
				So(svc.calls(), ShouldEqual, 0)
			})
		})

		Convey("When a lead is posted", func() {
			w := do(mux, http.MethodPost, "/", `{"name":"Ada","email":"ada@example.com"}`)

			Convey("Then the response also carries CORS headers", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})
	})

	Convey("Given request id handling", t, func() {
		mux := newMux(&mockService{})

		Convey("When the caller supplies an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "req-42")
			})
		})

		Convey("When the caller supplies none", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then a uuid is minted", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldHaveLength, 36)
			})
		})

		Convey("When a handler logs during the request", func() {
			var buf bytes.Buffer
			So(logger.Init(logger.WithFormat(logger.FormatJSON), logger.WithWriter(&buf)), ShouldBeNil)
			defer func() { _ = logger.Init(logger.WithWriter(io.Discard)) }()
			logged := newMux(&mockService{})

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`))
			req.Header.Set(api.HeaderRequestID, "req-log")
			logged.ServeHTTP(httptest.NewRecorder(), req)

			Convey("Then its entries carry the request id", func() {
				So(buf.String(), ShouldContainSubstring, `"request_id":"req-log"`)
			})
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given a wrapped kind error", t, func() {
		cause := errors.New("unexpected EOF")
		err := api.WrapKind("api.relay_lead", api.ErrRelayInternal, cause)

		Convey("Then both the kind and the cause are matchable", func() {
			So(errors.Is(err, api.ErrRelayInternal), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.relay_lead: Failed to process lead: unexpected EOF")
		})

		Convey("Then a bare kind error names its op", func() {
			So(api.NewKind("api.submit_lead", api.ErrMethodNotAllowed).Error(), ShouldEqual, "api.submit_lead: Method not allowed, POST only")
		})
	})
}
