package watcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

// ParseRequest reads the arXiv ids listed in a request file. Ids are
// whitespace separated; '#' starts a comment. Duplicates are dropped.
func ParseRequest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request: %w", err)
	}
	defer f.Close()

	ids, err := parseIDs(f)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", path, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("request %s lists no arXiv ids", path)
	}
	return ids, nil
}

func parseIDs(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, field := range strings.Fields(line) {
			id := normalizeID(field)
			if id == "" || seen[model.BaseID(id)] {
				continue
			}
			seen[model.BaseID(id)] = true
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// normalizeID accepts bare ids, "arXiv:" prefixed ids and abs/pdf URLs.
func normalizeID(s string) string {
	s = strings.Trim(s, ",;")
	if len(s) >= 6 && strings.EqualFold(s[:6], "arxiv:") {
		s = s[6:]
	}
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if i := strings.Index(s, marker); i >= 0 {
			s = s[i+len(marker):]
			break
		}
	}
	s = strings.TrimSuffix(s, ".pdf")
	return strings.TrimSpace(s)
}
