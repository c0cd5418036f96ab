package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestClient(t *testing.T) {

	tt := []struct {
		name    string
		path    string
		method  string
		payload string
	}{
		{name: "get", path: "/", method: "GET"},
		{name: "post", path: "/", method: "POST", payload: `{"foo":"bar"}`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

				if r.Method != tc.method {
					t.Errorf("wrong method: %v", r.Method)
				}

				ct := r.Header.Get("Content-Type")
				if tc.payload != "" && ct != "application/json" {
					t.Errorf("wrong content type: %v", ct)
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}
				if string(body) != tc.payload {
					t.Errorf("expected %v, got %v", tc.payload, string(body))
				}
			}))
			defer testSrv.Close()

			u, _ := url.Parse(testSrv.URL)
			c := &Client{
				BaseURL:    u,
				HTTPClient: &http.Client{Timeout: 5 * time.Second},
			}

			var payload []byte
			if tc.payload != "" {
				payload = []byte(tc.payload)
			}

			req, err := c.NewRequest(tc.path, tc.method, payload)
			if err != nil {
				t.Fatalf("could not make request: %q", err)
			}

			if req.URL.String() != (u.String() + tc.path) {
				t.Errorf("wrong target url: %v", req.URL.String())
			}

			resp, err := c.Do(req)
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			defer resp.Body.Close()
		})
	}
}
