package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testDate() time.Time {
	return time.Date(2020, time.June, 2, 0, 0, 0, 0, time.UTC)
}

func TestFetchReturnsDocument(t *testing.T) {
	t.Parallel()

	var gotPath, gotDate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDate = r.URL.Query().Get("date")
		_, _ = w.Write([]byte(diaryHTML(
			[]string{"Calories", "Carbs", "Fat", "Protein"},
			[]diaryItem{{name: "Eggs", values: map[string]string{"Calories": "140", "Protein": "12"}}},
		)))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, 5*time.Second, nil)
	doc, err := f.Fetch(context.Background(), "alice", testDate())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if doc == nil {
		t.Fatal("expected a document")
	}

	if gotPath != "/food/diary/alice" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotDate != "2020-06-02" {
		t.Fatalf("unexpected date param: %s", gotDate)
	}

	records := Extract(doc)
	if len(records) != 1 || records[0].Item != "Eggs" {
		t.Fatalf("unexpected extraction result: %+v", records)
	}
}

func TestFetchNonSuccessIsAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, 5*time.Second, nil)
	doc, err := f.Fetch(context.Background(), "alice", testDate())
	if err != nil {
		t.Fatalf("non-success status must not be an error, got %v", err)
	}
	if doc != nil {
		t.Fatal("expected absent document")
	}
}

func TestIsPublic(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/food/diary/alice": diaryHTML(
			[]string{"Calories", "Carbs", "Fat", "Protein"},
			[]diaryItem{{name: "Eggs", values: map[string]string{"Calories": "140"}}},
		),
		"/food/diary/bob":    privateDiaryHTML,
		"/food/diary/nobody": notFoundHTML("nobody"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, 5*time.Second, nil)
	ctx := context.Background()

	cases := []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"bob", false},
		{"nobody", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := f.IsPublic(ctx, tc.username)
		if err != nil {
			t.Fatalf("IsPublic(%q) error: %v", tc.username, err)
		}
		if got != tc.want {
			t.Fatalf("IsPublic(%q): expected %v, got %v", tc.username, tc.want, got)
		}
	}
}

func TestIsPublicUnreachablePage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, 5*time.Second, nil)
	got, err := f.IsPublic(context.Background(), "alice")
	if err != nil {
		t.Fatalf("IsPublic error: %v", err)
	}
	if got {
		t.Fatal("unreachable diary must not be scrape-eligible")
	}
}
