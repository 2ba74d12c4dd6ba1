package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"biblereader/copytext"
	"biblereader/verseparser"
)

type recordedRequest struct {
	path  string
	query map[string]string
}

func newContentServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*ContentClient, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		mu.Lock()
		seen = append(seen, recordedRequest{path: r.URL.Path, query: q})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewContentClient(srv.URL, 2*time.Second), &seen
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestFetchSingle(t *testing.T) {
	client, seen := newContentServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"content":"For God so loved the world"}`)
	})

	v, err := client.FetchSingle(context.Background(), "kjv", "John", 3, 16)
	if err != nil {
		t.Fatalf("FetchSingle: %v", err)
	}
	want := RemoteVerse{Book: "John", Chapter: 3, Verse: 16, Text: "For God so loved the world", Translation: "KJV", Reference: "John 3:16"}
	if v != want {
		t.Errorf("got %+v, want %+v", v, want)
	}

	req := (*seen)[0]
	if req.path != "/KJV/single" {
		t.Errorf("path = %q", req.path)
	}
	if req.query["book"] != "John" || req.query["chapter"] != "3" || req.query["verse"] != "16" {
		t.Errorf("query = %v", req.query)
	}
}

func TestFetchMultipleResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []RemoteVerse
	}{
		{
			name: "array",
			body: `[{"book":"John","chapter":3,"verse":16,"text":"a"},{"book_name":"John","chapter":"3","verse_number":"17","verse_text":"b"}]`,
			want: []RemoteVerse{
				{Book: "John", Chapter: 3, Verse: 16, Text: "a", Translation: "TB", Reference: "John 3:16"},
				{Book: "John", Chapter: 3, Verse: 17, Text: "b", Translation: "TB", Reference: "John 3:17"},
			},
		},
		{
			name: "wrapped",
			body: `{"verses":[{"book":"Psalms","chapter":23,"verse":1,"content":"The LORD is my shepherd","reference":"Psalms 23:1"}]}`,
			want: []RemoteVerse{
				{Book: "Psalms", Chapter: 23, Verse: 1, Text: "The LORD is my shepherd", Translation: "TB", Reference: "Psalms 23:1"},
			},
		},
		{
			name: "single object",
			body: `{"book":"Jude","chapter":1,"verse":"25","text":"To the only wise God"}`,
			want: []RemoteVerse{
				{Book: "Jude", Chapter: 1, Verse: 25, Text: "To the only wise God", Translation: "TB", Reference: "Jude 1:25"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newContentServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.body)
			})
			got, err := client.FetchMultiple(context.Background(), "tb", []verseparser.Address{{Book: "John", Chapter: 3}})
			if err != nil {
				t.Fatalf("FetchMultiple: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestFetchVersesDispatch(t *testing.T) {
	client, seen := newContentServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/KJV/single" {
			writeJSON(w, `{"text":"Jesus wept."}`)
			return
		}
		writeJSON(w, `[]`)
	})
	ctx := context.Background()

	tests := []struct {
		reference string
		path      string
		verses    string
	}{
		{"John 11:35", "/KJV/single", ""},
		{"Psalms 23", "/KJV/multiple", "Psalms 23"},
		{"Genesis 1:1-3", "/KJV/multiple", "Genesis 1:1-3"},
		{"John 3:16, Romans 8:28", "/KJV/multiple", "John 3:16,Romans 8:28"},
	}
	for i, tt := range tests {
		if _, err := client.FetchVerses(ctx, "KJV", tt.reference); err != nil {
			t.Fatalf("FetchVerses(%q): %v", tt.reference, err)
		}
		req := (*seen)[i]
		if req.path != tt.path {
			t.Errorf("%q went to %s, want %s", tt.reference, req.path, tt.path)
		}
		if tt.verses != "" && req.query["verses"] != tt.verses {
			t.Errorf("%q sent verses=%q, want %q", tt.reference, req.query["verses"], tt.verses)
		}
	}

	if _, err := client.FetchVerses(ctx, "KJV", "Foo"); !errors.Is(err, verseparser.ErrInvalidReferenceFormat) {
		t.Errorf("expected ErrInvalidReferenceFormat, got %v", err)
	}
}

func TestContentClientErrors(t *testing.T) {
	client, _ := newContentServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("book") {
		case "Missing":
			http.NotFound(w, r)
		case "Broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			writeJSON(w, `{not json`)
		}
	})
	ctx := context.Background()

	if _, err := client.FetchSingle(ctx, "KJV", "Missing", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("404: got %v", err)
	}
	if _, err := client.FetchSingle(ctx, "KJV", "Broken", 1, 1); !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("502: got %v", err)
	}
	if _, err := client.FetchSingle(ctx, "KJV", "Garbled", 1, 1); !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("bad JSON: got %v", err)
	}

	dead := NewContentClient("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := dead.FetchSingle(ctx, "KJV", "John", 1, 1); !errors.Is(err, ErrContentUnavailable) {
		t.Errorf("unreachable: got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := client.FetchSingle(cancelled, "KJV", "John", 1, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v", err)
	}
}

func TestContentFetchVerseRange(t *testing.T) {
	client, seen := newContentServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[{"chapter":1,"verse":3,"text":"c"},{"chapter":1,"verse":1,"text":"a"},{"chapter":1,"verse":2,"text":"b"},{"chapter":2,"verse":1,"text":"other chapter"}]`)
	})

	got, err := client.FetchVerseRange(context.Background(), "CUNPSS-神", "Genesis", 1, 0, 0)
	if err != nil {
		t.Fatalf("FetchVerseRange: %v", err)
	}
	want := []copytext.VerseText{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}, {Number: 3, Text: "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v", got)
	}
	if (*seen)[0].path != "/CUNPSS-神/multiple" {
		t.Errorf("path = %q", (*seen)[0].path)
	}

	got, err = client.FetchVerseRange(context.Background(), "KJV", "Genesis", 1, 2, 3)
	if err != nil {
		t.Fatalf("FetchVerseRange range: %v", err)
	}
	if len(got) != 2 || got[0].Number != 2 {
		t.Errorf("range slice = %+v", got)
	}
}
