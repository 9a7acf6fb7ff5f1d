package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

var pdfMagic = []byte("%PDF")

// DownloadPDF fetches paper.PDFURL into dest. The file is removed again when
// the payload is not a readable PDF.
func (f *implFetcher) DownloadPDF(ctx context.Context, paper model.Paper, dest string) error {
	if paper.PDFURL == "" {
		return apperror.Retrieval(paper.ID, fmt.Errorf("no pdf url"))
	}

	f.logger.Info(ctx, "Downloading PDF: %s", paper.PDFURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, paper.PDFURL, nil)
	if err != nil {
		return apperror.Retrieval(paper.ID, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return apperror.Retrieval(paper.ID, fmt.Errorf("download pdf: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.Retrieval(paper.ID, fmt.Errorf("download pdf: status %d", resp.StatusCode))
	}

	body := bufio.NewReader(resp.Body)
	head, _ := body.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		return apperror.Retrieval(paper.ID, fmt.Errorf("download pdf: response is not a PDF"))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return apperror.Retrieval(paper.ID, fmt.Errorf("create dir: %w", err))
	}

	out, err := os.Create(dest)
	if err != nil {
		return apperror.Retrieval(paper.ID, fmt.Errorf("create file: %w", err))
	}
	n, copyErr := io.Copy(out, body)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(dest)
		if copyErr == nil {
			copyErr = closeErr
		}
		return apperror.Retrieval(paper.ID, fmt.Errorf("write pdf: %w", copyErr))
	}

	if _, err := PageCount(dest); err != nil {
		os.Remove(dest)
		return apperror.Retrieval(paper.ID, fmt.Errorf("invalid pdf: %w", err))
	}

	f.logger.Info(ctx, "Saved PDF %s (%d bytes)", dest, n)
	return nil
}

// PageCount opens the PDF at path and returns its number of pages.
func PageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	file, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return r.NumPage(), nil
}

// ExtractText returns the plain text of every page of the PDF at path.
func ExtractText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	file, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text content extracted from PDF")
	}
	return text, nil
}
