package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/utils/try"
)

func TestUploadDataset(t *testing.T) {
	t.Run("it sends file and metadata as multipart, reporting progress", func(t *testing.T) {
		var gotMeta datasets.UploadMetadata
		var gotFile []byte
		var gotFilename string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/v1/datasets" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				t.Fatal(err)
			}
			mr := multipart.NewReader(r.Body, params["boundary"])
			for {
				part, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				switch part.FormName() {
				case "metadata":
					if err := json.NewDecoder(part).Decode(&gotMeta); err != nil {
						t.Fatal(err)
					}
				case "file":
					gotFilename = part.FileName()
					gotFile = try.To(io.ReadAll(part)).OrFatal(t)
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": "ds-new", "name": "corpus", "status": "draft"}`))
		}))
		defer server.Close()
		testee := newClient(t, server)

		content := bytes.Repeat([]byte("source\ttarget\n"), 10000)
		meta := datasets.UploadMetadata{
			Name: "corpus", Type: datasets.Human, LanguageDirection: "ja-en", Scene: "meeting",
		}
		progress := []int{}

		got := try.To(testee.UploadDataset(
			context.Background(), "corpus.tsv", bytes.NewReader(content), int64(len(content)),
			meta, func(p int) { progress = append(progress, p) },
		)).OrFatal(t)

		if got.Id != "ds-new" || got.Status != datasets.Draft {
			t.Errorf("unexpected response: %+v", got)
		}
		if gotMeta != meta {
			t.Errorf("metadata = %+v, want %+v", gotMeta, meta)
		}
		if gotFilename != "corpus.tsv" || !bytes.Equal(gotFile, content) {
			t.Errorf("file is not sent as is: name = %s, size = %d", gotFilename, len(gotFile))
		}

		if len(progress) == 0 || progress[len(progress)-1] != 100 {
			t.Fatalf("progress does not reach 100: %v", progress)
		}
		for i := 1; i < len(progress); i++ {
			if progress[i] <= progress[i-1] {
				t.Errorf("progress is not increasing: %v", progress)
				break
			}
		}
	})

	t.Run("without size, progress is not reported", func(t *testing.T) {
		server, _ := newServer(t, http.StatusCreated, []byte(`{"id": "ds-new"}`))
		testee := newClient(t, server)

		called := false
		try.To(testee.UploadDataset(
			context.Background(), "f.tsv", strings.NewReader("a\tb\n"), 0,
			datasets.UploadMetadata{Name: "f"}, func(int) { called = true },
		)).OrFatal(t)
		if called {
			t.Error("progress is reported")
		}
	})

	t.Run("rejected upload is error", func(t *testing.T) {
		server, _ := newServer(t, http.StatusBadRequest, map[string]string{"message": "unsupported format"})
		testee := newClient(t, server)

		_, err := testee.UploadDataset(
			context.Background(), "f.bin", strings.NewReader("xxx"), 3,
			datasets.UploadMetadata{Name: "f"}, nil,
		)
		if err == nil || !strings.Contains(err.Error(), "unsupported format") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
