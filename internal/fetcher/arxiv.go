package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// FetchDay queries arXiv for submissions made on day in any of categories
func (f *implFetcher) FetchDay(ctx context.Context, day time.Time, categories []string) ([]model.Paper, error) {
	query := DayQuery(day, categories)
	f.logger.Info(ctx, "Fetching papers for %s (categories: %s, max: %d)",
		day.Format("2006-01-02"), strings.Join(categories, ","), f.maxResults)

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(f.maxResults))

	papers, err := f.query(ctx, params)
	if err != nil {
		return nil, err
	}

	f.logger.Info(ctx, "Found %d papers for %s", len(papers), day.Format("2006-01-02"))
	return papers, nil
}

// FetchByIDs looks up specific papers. Every requested id must be found.
func (f *implFetcher) FetchByIDs(ctx context.Context, ids []string) ([]model.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("id_list", strings.Join(ids, ","))
	params.Set("max_results", strconv.Itoa(len(ids)))

	papers, err := f.query(ctx, params)
	if err != nil {
		return nil, err
	}

	byBase := make(map[string]model.Paper, len(papers))
	for _, p := range papers {
		byBase[p.BaseID()] = p
	}

	ordered := make([]model.Paper, 0, len(ids))
	for _, id := range ids {
		p, ok := byBase[model.BaseID(id)]
		if !ok {
			return nil, apperror.Retrieval(id, fmt.Errorf("paper not found"))
		}
		ordered = append(ordered, p)
	}
	return ordered, nil
}

// DayQuery builds the arXiv search expression for one UTC day.
func DayQuery(day time.Time, categories []string) string {
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		cats = append(cats, "cat:"+c)
	}
	stamp := day.Format("20060102")
	return fmt.Sprintf("(%s) AND submittedDate:[%s000000 TO %s235959]", strings.Join(cats, " OR "), stamp, stamp)
}

func (f *implFetcher) query(ctx context.Context, params url.Values) ([]model.Paper, error) {
	reqURL := f.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.Retrieval("", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Retrieval("", fmt.Errorf("query arXiv: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperror.Retrieval("", fmt.Errorf("query arXiv: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	feed, err := f.feedParser.Parse(resp.Body)
	if err != nil {
		return nil, apperror.Retrieval("", fmt.Errorf("parse arXiv feed: %w", err))
	}

	papers := make([]model.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if strings.Contains(item.GUID, "/api/errors") {
			return nil, apperror.Retrieval("", fmt.Errorf("arXiv rejected query: %s", collapse(item.Description)))
		}
		paper, err := toPaper(item)
		if err != nil {
			return nil, apperror.Retrieval("", err)
		}
		papers = append(papers, paper)
	}
	return papers, nil
}

func toPaper(item *gofeed.Item) (model.Paper, error) {
	id := arxivID(item.GUID)
	if id == "" {
		id = arxivID(item.Link)
	}
	if id == "" {
		return model.Paper{}, fmt.Errorf("malformed entry %q: no arXiv id", item.Title)
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
	}

	p := model.Paper{
		ID:         id,
		Title:      collapse(item.Title),
		Authors:    authors,
		Abstract:   collapse(item.Description),
		Categories: append([]string(nil), item.Categories...),
		AbsURL:     "https://arxiv.org/abs/" + id,
		PDFURL:     "https://arxiv.org/pdf/" + id,
	}
	if item.PublishedParsed != nil {
		p.Published = item.PublishedParsed.UTC()
	}
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			p.PDFURL = link
		} else if strings.Contains(link, "/abs/") {
			p.AbsURL = link
		}
	}
	return p, nil
}

// arxivID extracts "2401.01234v1" from "http://arxiv.org/abs/2401.01234v1".
func arxivID(raw string) string {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, "/abs/")
	if idx < 0 {
		return ""
	}
	return strings.TrimSuffix(raw[idx+len("/abs/"):], "/")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
