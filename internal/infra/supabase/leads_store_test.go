package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitcoachhq/lead-funnel-go/internal/domain"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/resilience"
	"github.com/fitcoachhq/lead-funnel-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*supabase.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("test")
	client := supabase.NewClient(srv.Client(), srv.URL, "anon-key", "service-key", cb, cfg, zap.NewNop())
	return client, srv
}

func TestUpsertLead_SendsMergeDuplicates(t *testing.T) {
	var gotPath, gotPrefer string
	var gotBody domain.LeadRecord

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotPrefer = r.Header.Get("Prefer")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"lead-1","email":"ana@example.com","icp_score":85,"segment":"hot","recommended_product":"Nutrition & Training Bundle"}]`))
	})

	lead := &domain.LeadRecord{
		Email:              "ana@example.com",
		ICPScore:           85,
		Segment:            domain.SegmentHot,
		RecommendedProduct: domain.ProductNutritionTraining,
	}

	saved, err := client.UpsertLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("expected upsert to succeed, got %v", err)
	}

	if !strings.Contains(gotPath, "prospects?on_conflict=email") {
		t.Errorf("expected on_conflict=email in path, got %s", gotPath)
	}
	if !strings.Contains(gotPrefer, "resolution=merge-duplicates") {
		t.Errorf("expected merge-duplicates prefer header, got %q", gotPrefer)
	}
	if gotBody.Email != "ana@example.com" {
		t.Errorf("expected email in payload, got %q", gotBody.Email)
	}
	if saved.ID != "lead-1" {
		t.Errorf("expected server-assigned id, got %q", saved.ID)
	}
}

func TestGetLeadByEmail_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetLeadByEmail(context.Background(), "nobody@example.com")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetLeadByEmail_EscapesEmail(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"lead-2","email":"ana+gym@example.com","segment":"warm"}]`))
	})

	lead, err := client.GetLeadByEmail(context.Background(), "ana+gym@example.com")
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if strings.Contains(gotPath, "ana+gym") {
		t.Errorf("expected plus sign to be escaped in %s", gotPath)
	}
	if lead.Segment != domain.SegmentWarm {
		t.Errorf("expected warm segment, got %q", lead.Segment)
	}
}

func newRetryingClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	cb := resilience.NewCircuitBreaker("test")
	return supabase.NewClient(srv.Client(), srv.URL, "anon-key", "service-key", cb, cfg, zap.NewNop())
}

func TestGetLeadByEmail_MissIsNotRetried(t *testing.T) {
	var gets int32
	client := newRetryingClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetLeadByEmail(context.Background(), "new@example.com")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := atomic.LoadInt32(&gets); n != 1 {
		t.Errorf("expected a single request for a miss, got %d", n)
	}
}

func TestGetLeadByEmail_MissesLeaveBreakerClosed(t *testing.T) {
	client := newRetryingClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[{"id":"lead-9","email":"new@example.com"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	for i := 0; i < 10; i++ {
		_, err := client.GetLeadByEmail(context.Background(), "new@example.com")
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			t.Fatalf("lookup %d: expected ErrNotFound, got %v", i, err)
		}
	}

	// The breaker is shared across the client, so a run of misses must not
	// block the write that typically follows a miss.
	if _, err := client.UpsertLead(context.Background(), &domain.LeadRecord{Email: "new@example.com"}); err != nil {
		t.Fatalf("expected upsert after misses to succeed, got %v", err)
	}
}

func TestListLeads_Pagination(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a","email":"a@x.com"},{"id":"b","email":"b@x.com"}]`))
	})

	leads, err := client.ListLeads(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}

	if !strings.Contains(gotPath, "limit=10") || !strings.Contains(gotPath, "offset=20") {
		t.Errorf("expected limit=10 offset=20, got %s", gotPath)
	}
	if len(leads) != 2 {
		t.Errorf("expected 2 leads, got %d", len(leads))
	}
}

func TestUpsertLead_ServerErrorWrapped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := client.UpsertLead(context.Background(), &domain.LeadRecord{Email: "x@x.com"})

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if ext.Service != "supabase/prospects" {
		t.Errorf("expected supabase/prospects service tag, got %q", ext.Service)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	stored := make(map[string]json.RawMessage)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			var row struct {
				VisitorID string `json:"visitor_id"`
			}
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &row)
			stored[row.VisitorID] = raw
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			id := r.URL.Query().Get("visitor_id")
			id = strings.TrimPrefix(id, "eq.")
			raw, ok := stored[id]
			if !ok {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte("[" + string(raw) + "]"))
		case http.MethodDelete:
			id := strings.TrimPrefix(r.URL.Query().Get("visitor_id"), "eq.")
			delete(stored, id)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	profile := domain.NewUserProfile("visitor-7")
	profile.AddGoal(domain.GoalWeightLoss)
	profile.ExperienceLevel = domain.ExperienceBeginner

	if err := client.Save(context.Background(), profile); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := client.Load(context.Background(), "visitor-7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.HasGoal(domain.GoalWeightLoss) {
		t.Error("expected weight_loss goal to survive the round trip")
	}
	if loaded.ExperienceLevel != domain.ExperienceBeginner {
		t.Errorf("expected beginner, got %q", loaded.ExperienceLevel)
	}

	if err := client.Reset(context.Background(), "visitor-7"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	_, err = client.Load(context.Background(), "visitor-7")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestProfilePaths_EscapeVisitorID(t *testing.T) {
	var gotPaths []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})

	// A visitor id containing PostgREST filter metacharacters must not leak
	// into the query string unescaped.
	const hostile = "visitor&select=*"

	_, _ = client.Load(context.Background(), hostile)
	if err := client.Reset(context.Background(), hostile); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if len(gotPaths) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(gotPaths))
	}
	for _, p := range gotPaths {
		if strings.Contains(p, "visitor&select") {
			t.Errorf("expected visitor id to be escaped in %s", p)
		}
	}
}
