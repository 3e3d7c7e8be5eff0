package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAddLabels(t *testing.T) {
	tests := []struct {
		name          string
		labels        []string
		expectRequest bool
	}{
		{name: "labels_sent", labels: []string{"PROJ", "enhancement"}, expectRequest: true},
		{name: "empty_list_skips_call", labels: []string{}, expectRequest: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestMade := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost && r.URL.Path == "/repos/test-org/test-repo/issues/42/labels" {
					requestMade = true
					var req []string
					json.NewDecoder(r.Body).Decode(&req)

					if len(req) != len(tt.labels) {
						t.Errorf("Expected %d labels in request, got %v", len(tt.labels), req)
					}

					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode([]map[string]interface{}{})
					return
				}
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			g := newTestGithub(t, server)

			if err := g.AddLabels(context.Background(), 42, tt.labels); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if requestMade != tt.expectRequest {
				t.Errorf("Expected request made = %v, got %v", tt.expectRequest, requestMade)
			}
		})
	}
}

func TestRemoveLabel(t *testing.T) {
	requestMade := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/repos/test-org/test-repo/issues/42/labels/e2e:fail" {
			requestMade = true
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGithub(t, server)

	if err := g.RemoveLabel(context.Background(), 42, "e2e:fail"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !requestMade {
		t.Error("Expected label removal request to be made")
	}
}

func TestListLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/repos/test-org/test-repo/issues/42/labels" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"name": "checked"},
				{"name": "enhancement"},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGithub(t, server)

	labels, err := g.ListLabels(context.Background(), 42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(labels) != 2 || labels[0] != "checked" {
		t.Errorf("Unexpected labels: %v", labels)
	}
}

func TestCreateComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/repos/test-org/test-repo/issues/42/comments" {
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)

			if req["body"] != "Deployment link(s):" {
				t.Errorf("Unexpected comment body: %v", req["body"])
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 1})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGithub(t, server)

	if err := g.CreateComment(context.Background(), 42, "Deployment link(s):"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestAddAssignees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/repos/test-org/test-repo/issues/42/assignees" {
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)

			assignees, ok := req["assignees"].([]interface{})
			if !ok || len(assignees) != 1 || assignees[0] != "alice" {
				t.Errorf("Unexpected assignees in request: %v", req["assignees"])
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"number": 42})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	g := newTestGithub(t, server)

	if err := g.AddAssignees(context.Background(), 42, []string{"alice"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
