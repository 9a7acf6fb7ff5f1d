// Package model holds the records passed between pipeline stages.
package model

import (
	"strings"
	"time"
)

// Paper is arXiv metadata for one submission. It is not modified after fetch.
type Paper struct {
	ID         string
	Title      string
	Authors    []string
	Abstract   string
	Published  time.Time
	Categories []string
	AbsURL     string
	PDFURL     string
}

// BaseID strips the version suffix ("2401.01234v2" -> "2401.01234").
func (p Paper) BaseID() string {
	return BaseID(p.ID)
}

// BaseID strips an arXiv version suffix from id.
func BaseID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "v"); i > 0 && i < len(id)-1 {
		digits := id[i+1:]
		if strings.Trim(digits, "0123456789") == "" {
			return id[:i]
		}
	}
	return id
}

// Script is the narration generated for exactly one paper.
type Script struct {
	PaperID string
	Text    string
}

// AudioSegment is the synthesized speech for one Script.
type AudioSegment struct {
	PaperID  string
	Index    int
	MIMEType string
	Data     []byte
	Path     string
	Duration time.Duration
}

// Episode is the assembled output of one run.
type Episode struct {
	Date           time.Time
	Title          string
	Dir            string
	WAVPath        string
	AudioPath      string
	VideoPath      string
	TranscriptPath string
	DocxPath       string
	Segments       []AudioSegment
	Papers         []Paper
	Duration       time.Duration
}

// SegmentsDuration sums the durations of the episode's segments.
func (e Episode) SegmentsDuration() time.Duration {
	var total time.Duration
	for _, s := range e.Segments {
		total += s.Duration
	}
	return total
}
