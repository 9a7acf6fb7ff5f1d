package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
)

// tagMP3 writes episode metadata, the paper links, the transcript and the
// cover art into the MP3's ID3v2 tag.
func (a *implAssembler) tagMP3(path string, req Request) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(req.Title)
	tag.SetArtist(a.cfg.Podcast.Author)
	tag.SetAlbum(a.cfg.Podcast.Name)
	tag.SetGenre("Podcast")
	if !req.Date.IsZero() {
		tag.SetYear(req.Date.Format("2006"))
	}

	if len(req.Papers) > 0 {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "Papers",
			Text:        paperLinks(req),
		})
	}

	if req.Transcript != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "Transcript",
			Lyrics:            req.Transcript,
		})
	}

	if cover := a.cfg.AssetPath(a.cfg.Assets.CoverArt); cover != "" {
		if art, err := os.ReadFile(cover); err == nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    imageMIME(cover),
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     art,
			})
		}
	}

	return tag.Save()
}

func paperLinks(req Request) string {
	lines := make([]string, 0, len(req.Papers))
	for _, p := range req.Papers {
		lines = append(lines, fmt.Sprintf("%s - %s", p.Title, p.AbsURL))
	}
	return strings.Join(lines, "\n")
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
