package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

func TestHTTPFetcher_FetchesRelativeSource(t *testing.T) {
	var gotAccept, gotXRW string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/opts" {
			http.NotFound(w, r)
			return
		}
		gotAccept = r.Header.Get("Accept")
		gotXRW = r.Header.Get("X-Requested-With")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"values":[["1","A"],["2","B"]]}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(WithBaseURL(srv.URL))
	records, err := f.Fetch(context.Background(), "/opts")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []model.OptionRecord{{Value: "1", Label: "A"}, {Value: "2", Label: "B"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if gotAccept != "application/json" || gotXRW != "XMLHttpRequest" {
		t.Fatalf("unexpected headers: accept=%q x-requested-with=%q", gotAccept, gotXRW)
	}
}

func TestHTTPFetcher_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/opts")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if errors.Is(err, ErrFetchFailed) {
		t.Fatalf("malformed response must not report as fetch failure: %v", err)
	}
	var srcErr *Error
	if !errors.As(err, &srcErr) || srcErr.Source != srv.URL+"/opts" {
		t.Fatalf("expected *Error carrying the source, got %#v", err)
	}
}

func TestHTTPFetcher_StatusIsFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	if !IsFetchFailed(err) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	var status StatusError
	if !errors.As(err, &status) || status.StatusCode() != http.StatusBadGateway {
		t.Fatalf("expected status 502 in chain, got %v", err)
	}
}

func TestHTTPFetcher_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(WithTimeout(time.Second)).Fetch(context.Background(), url)
	if !IsFetchFailed(err) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestHTTPFetcher_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"values":[["1","A"],["2","B"]]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(WithMaxBodyBytes(8)).Fetch(context.Background(), srv.URL)
	if !IsFetchFailed(err) {
		t.Fatalf("expected fetch failure for oversized body, got %v", err)
	}
}

func TestHTTPFetcher_RelativeWithoutBase(t *testing.T) {
	_, err := NewHTTPFetcher().Fetch(context.Background(), "/opts")
	if !IsFetchFailed(err) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}

func TestHTTPFetcher_Resolve(t *testing.T) {
	f := NewHTTPFetcher(WithBaseURL("https://example.test/admin/"))
	cases := map[string]string{
		"/opts":                "https://example.test/opts",
		"opts?q=1":             "https://example.test/admin/opts?q=1",
		"https://other.test/x": "https://other.test/x",
		" /trimmed ":           "https://example.test/trimmed",
	}
	for in, want := range cases {
		got, err := f.Resolve(in)
		if err != nil {
			t.Fatalf("resolve %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("resolve %q = %q, want %q", in, got, want)
		}
	}
}

func TestShared_CollapsesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	next := FetcherFunc(func(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
		calls.Add(1)
		<-release
		return []model.OptionRecord{{Value: "1", Label: "A"}}, nil
	})
	const callers = 5
	var joined sync.WaitGroup
	joined.Add(callers)
	shared := Shared(next)
	shared.joined = func(string) { joined.Done() }

	var wg sync.WaitGroup
	results := make([][]model.OptionRecord, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records, err := shared.Fetch(context.Background(), "/opts")
			if err != nil {
				t.Errorf("fetch: %v", err)
			}
			results[i] = records
		}(i)
	}
	joined.Wait()
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one upstream fetch, got %d", got)
	}
	for i, records := range results {
		if len(records) != 1 || records[0].Value != "1" {
			t.Fatalf("caller %d got %#v", i, records)
		}
	}
	results[0][0].Value = "mutated"
	if results[1][0].Value != "1" {
		t.Fatalf("callers must receive independent copies")
	}
}

func TestShared_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	next := FetcherFunc(func(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
		calls.Add(1)
		select {
		case <-release:
			return []model.OptionRecord{{Value: "1", Label: "A"}}, nil
		case <-ctx.Done():
			return nil, failed(sourceID, ctx.Err())
		}
	})
	var joined sync.WaitGroup
	joined.Add(2)
	shared := Shared(next)
	shared.joined = func(string) { joined.Done() }

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := shared.Fetch(ctxA, "/opts")
		errA <- err
	}()
	type result struct {
		records []model.OptionRecord
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		records, err := shared.Fetch(context.Background(), "/opts")
		resB <- result{records, err}
	}()
	joined.Wait()

	cancelA()
	select {
	case err := <-errA:
		if !IsFetchFailed(err) || !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled caller did not return")
	}

	close(release)
	select {
	case got := <-resB:
		if got.err != nil {
			t.Fatalf("surviving caller error = %v", got.err)
		}
		want := []model.OptionRecord{{Value: "1", Label: "A"}}
		if diff := cmp.Diff(want, got.records); diff != "" {
			t.Fatalf("records mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("surviving caller did not return")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one upstream fetch, got %d", got)
	}
}

func TestShared_AlreadyCancelledContext(t *testing.T) {
	var calls atomic.Int32
	shared := Shared(FetcherFunc(func(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
		calls.Add(1)
		return nil, nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := shared.Fetch(ctx, "/opts"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("cancelled caller must not start a fetch, got %d", got)
	}
}
