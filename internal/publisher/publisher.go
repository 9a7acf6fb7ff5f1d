package publisher

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/nguyentantai21042004/daily-papers/internal/model"
)

const (
	titleLimit      = 85
	titleKeep       = 80
	titleSuffix     = " (AI Podcast)"
	categoryScience = "28"
)

var defaultTags = []string{
	"AI",
	"Machine Learning",
	"Research",
	"Podcast",
	"Daily Papers",
	"Artificial Intelligence",
}

// Upload sends the episode video to YouTube
func (p *implPublisher) Upload(ctx context.Context, ep model.Episode) (string, error) {
	if ep.VideoPath == "" {
		return "", fmt.Errorf("upload: episode has no video")
	}
	if len(ep.Papers) == 0 {
		return "", fmt.Errorf("upload: episode has no papers")
	}

	f, err := os.Open(ep.VideoPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       buildTitle(ep.Papers),
			Description: buildDescription(p.show, ep.Date, ep.Papers),
			Tags:        defaultTags,
			CategoryId:  categoryScience,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: p.privacy},
	}

	p.logger.Info(ctx, "Uploading %s to YouTube as %q (%s)", ep.VideoPath, video.Snippet.Title, p.privacy)

	lastPct := -1
	id, err := p.insert(ctx, video, f, func(current, total int64) {
		if total <= 0 {
			return
		}
		pct := int(current * 100 / total)
		if pct/10 != lastPct/10 {
			lastPct = pct
			p.logger.Info(ctx, "Uploaded %d%%", pct)
		}
	})
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	p.logger.Info(ctx, "Video uploaded successfully: https://www.youtube.com/watch?v=%s", id)
	return id, nil
}

// buildTitle names the video after the lead paper. Long titles are cut to
// keep room for the suffix.
func buildTitle(papers []model.Paper) string {
	title := strings.TrimSpace(papers[0].Title)
	if len([]rune(title)) >= titleLimit {
		title = string([]rune(title)[:titleKeep]) + "..."
	}
	return strings.TrimSpace(title + titleSuffix)
}

func buildDescription(show string, day time.Time, papers []model.Paper) string {
	if show == "" {
		show = "Daily Papers"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s podcast for %s\n\n", show, day.Format("2006-01-02"))

	for i, p := range papers {
		label := "Today's paper"
		if len(papers) > 1 {
			label = fmt.Sprintf("Paper %d", i+1)
		}
		url := p.PDFURL
		if url == "" {
			url = "URL not available"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, strings.TrimSpace(p.Title))
		fmt.Fprintf(&sb, "Paper URL: %s\n", url)
		fmt.Fprintf(&sb, "Paper Authors: %s\n\n", strings.Join(p.Authors, ", "))
	}

	fmt.Fprintf(&sb, "%s is an AI-generated podcast discussing the latest research papers in artificial intelligence and machine learning.\n\n", show)
	sb.WriteString("#AI #MachineLearning #Research #Podcast #DailyPapers")
	return sb.String()
}
