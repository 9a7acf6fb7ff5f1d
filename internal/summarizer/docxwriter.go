package summarizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 12
)

var (
	reSpeaker = regexp.MustCompile(`^(Speaker\s+\d+)\s*:\s*(.*)$`)
	reBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// WriteTranscript writes one section per paper: heading, link, then the
// dialogue with speaker labels set in bold.
func (s *implSummarizer) WriteTranscript(ctx context.Context, title string, sections []Section, txtPath, docxPath string) error {
	if txtPath != "" {
		if err := writeText(title, sections, txtPath); err != nil {
			return fmt.Errorf("write transcript text: %w", err)
		}
	}
	if docxPath != "" {
		if err := writeDocx(title, sections, docxPath); err != nil {
			return fmt.Errorf("write transcript docx: %w", err)
		}
	}
	s.logger.Info(ctx, "Transcript written for %d paper(s)", len(sections))
	return nil
}

func writeText(title string, sections []Section, path string) error {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, sec := range sections {
		fmt.Fprintf(&sb, "\n%s\n%s\n", sec.Paper.Title, sec.Paper.AbsURL)
		if len(sec.Paper.Authors) > 0 {
			fmt.Fprintf(&sb, "Authors: %s\n", strings.Join(sec.Paper.Authors, ", "))
		}
		sb.WriteString("\n")
		for _, line := range dialogue(sec.Script.Text) {
			sb.WriteString(line.String())
			sb.WriteString("\n")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func writeDocx(title string, sections []Section, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)

	for _, sec := range sections {
		doc.AddParagraph("")
		addStyledRun(doc.AddParagraph(""), sec.Paper.Title, true, 14)
		if sec.Paper.AbsURL != "" {
			addStyledRun(doc.AddParagraph(""), sec.Paper.AbsURL, false, fontSize)
		}
		if len(sec.Paper.Authors) > 0 {
			addStyledRun(doc.AddParagraph(""), strings.Join(sec.Paper.Authors, ", "), false, fontSize)
		}
		doc.AddParagraph("")

		for _, line := range dialogue(sec.Script.Text) {
			p := doc.AddParagraph("")
			if line.Speaker != "" {
				p.AddText(line.Speaker+": ").Font(fontName).Size(fontSize).Color("000000").Bold(true)
			}
			p.AddText(line.Text).Font(fontName).Size(fontSize).Color("000000")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return doc.SaveTo(path)
}

type dialogueLine struct {
	Speaker string
	Text    string
}

func (l dialogueLine) String() string {
	if l.Speaker == "" {
		return l.Text
	}
	return l.Speaker + ": " + l.Text
}

// dialogue splits a script into lines, separating "Speaker N:" labels.
// Markdown emphasis around labels is dropped.
func dialogue(script string) []dialogueLine {
	var lines []dialogueLine
	for _, raw := range strings.Split(script, "\n") {
		trimmed := cleanMarkdownInline(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		if m := reSpeaker.FindStringSubmatch(trimmed); m != nil {
			lines = append(lines, dialogueLine{Speaker: strings.Join(strings.Fields(m[1]), " "), Text: strings.TrimSpace(m[2])})
			continue
		}
		lines = append(lines, dialogueLine{Text: trimmed})
	}
	return lines
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(cleanMarkdownInline(text)).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func cleanMarkdownInline(s string) string {
	s = reBold.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
