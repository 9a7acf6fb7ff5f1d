package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/config"
	"github.com/nguyentantai21042004/daily-papers/internal/logger"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

const twoEntryFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/abc</id>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <published>2024-01-01T18:00:00Z</published>
    <title>Second
      Paper</title>
    <summary>  An abstract
      spanning lines. </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2401.00002v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.00002v1" rel="related" type="application/pdf"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v2</id>
    <published>2024-01-01T09:00:00Z</published>
    <title>First Paper</title>
    <summary>Another abstract.</summary>
    <author><name>Grace Hopper</name></author>
    <link href="http://arxiv.org/abs/2401.00001v2" rel="alternate" type="text/html"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>ArXiv Query</title></feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format_for_bogus</id>
    <title>Error</title>
    <summary>incorrect id format for bogus</summary>
  </entry>
</feed>`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*implFetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Arxiv: config.ArxivConfig{
		BaseURL:    srv.URL + "/api/query",
		MaxResults: 50,
		Timeout:    5 * time.Second,
	}}
	return New(cfg, logger.Nop()).(*implFetcher), srv
}

func testPDF(t *testing.T, text string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Arial", "", 12)
	doc.Cell(40, 10, text)

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestDayQuery(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := DayQuery(day, []string{"cs.AI", "cs.LG"})
	assert.Equal(t, "(cat:cs.AI OR cat:cs.LG) AND submittedDate:[20240101000000 TO 20240101235959]", got)
}

func TestFetchDay(t *testing.T) {
	var gotQuery map[string][]string
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(twoEntryFeed))
	})

	papers, err := f.FetchDay(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []string{"cs.AI", "cs.LG"})
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Equal(t, []string{"submittedDate"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"descending"}, gotQuery["sortOrder"])
	assert.Equal(t, []string{"50"}, gotQuery["max_results"])
	assert.Contains(t, gotQuery["search_query"][0], "submittedDate:[20240101000000 TO 20240101235959]")

	p := papers[0]
	assert.Equal(t, "2401.00002v1", p.ID)
	assert.Equal(t, "Second Paper", p.Title)
	assert.Equal(t, "An abstract spanning lines.", p.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, "http://arxiv.org/pdf/2401.00002v1", p.PDFURL)
	assert.Equal(t, "http://arxiv.org/abs/2401.00002v1", p.AbsURL)
	assert.Equal(t, []string{"cs.AI"}, p.Categories)
	assert.Equal(t, time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), p.Published)

	// Entries without a pdf link fall back to the canonical URL.
	assert.Equal(t, "https://arxiv.org/pdf/2401.00001v2", papers[1].PDFURL)
}

func TestFetchDayNoResults(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyFeed))
	})

	papers, err := f.FetchDay(context.Background(), time.Now(), []string{"cs.AI"})
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestFetchDayFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed feed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("definitely not xml"))
			},
		},
		{
			name: "api error entry",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(errorFeed))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFetcher(t, tt.handler)
			_, err := f.FetchDay(context.Background(), time.Now(), []string{"cs.AI"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrRetrieval), "got %v", err)
		})
	}
}

func TestFetchDayUnreachable(t *testing.T) {
	f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := f.FetchDay(context.Background(), time.Now(), []string{"cs.AI"})
	assert.ErrorIs(t, err, apperror.ErrRetrieval)
}

func TestFetchByIDs(t *testing.T) {
	var gotIDs string
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("id_list")
		w.Write([]byte(twoEntryFeed))
	})

	papers, err := f.FetchByIDs(context.Background(), []string{"2401.00001", "2401.00002v1"})
	require.NoError(t, err)
	assert.Equal(t, "2401.00001,2401.00002v1", gotIDs)
	require.Len(t, papers, 2)
	assert.Equal(t, "2401.00001v2", papers[0].ID)
	assert.Equal(t, "2401.00002v1", papers[1].ID)
}

func TestFetchByIDsMissing(t *testing.T) {
	f, _ := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoEntryFeed))
	})

	_, err := f.FetchByIDs(context.Background(), []string{"2401.00001", "2401.99999"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRetrieval)
	assert.Contains(t, err.Error(), "2401.99999")
}

func TestDownloadPDF(t *testing.T) {
	payload := testPDF(t, "Attention is all you need")
	f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(payload)
	})

	dest := filepath.Join(t.TempDir(), "papers", "paper.pdf")
	paper := model.Paper{ID: "2401.00001v1", PDFURL: srv.URL + "/pdf/2401.00001v1"}
	require.NoError(t, f.DownloadPDF(context.Background(), paper, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	text, err := ExtractText(dest)
	require.NoError(t, err)
	assert.Contains(t, text, "Attention")
}

func TestDownloadPDFRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload []byte
	}{
		{name: "html page", status: http.StatusOK, payload: []byte("<html>captcha</html>")},
		{name: "truncated pdf", status: http.StatusOK, payload: []byte("%PDF-1.4\n garbage")},
		{name: "not found", status: http.StatusNotFound, payload: []byte("missing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(tt.payload)
			})

			dest := filepath.Join(t.TempDir(), "paper.pdf")
			err := f.DownloadPDF(context.Background(), model.Paper{ID: "x", PDFURL: srv.URL + "/pdf/x"}, dest)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrRetrieval)

			_, statErr := os.Stat(dest)
			assert.True(t, os.IsNotExist(statErr), "rejected download must not leave a file")
		})
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "none.pdf"))
	assert.Error(t, err)
}
