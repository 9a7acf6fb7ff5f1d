package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
	"github.com/nguyentantai21042004/daily-papers/pkg/ffprobe"
)

const (
	episodeWAV = "episode.wav"
	episodeMP3 = "episode.mp3"
	episodeMP4 = "episode.mp4"
)

// Assemble writes the segments to disk, joins them with the optional intro
// and outro, encodes the MP3 (and MP4 when enabled) and measures the result.
func (a *implAssembler) Assemble(ctx context.Context, req Request) (model.Episode, error) {
	if len(req.Segments) == 0 {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("no audio segments to assemble"))
	}
	startTime := time.Now()

	if a.cfg.FFmpeg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.FFmpeg.Timeout)
		defer cancel()
	}

	// ffmpeg runs inside the output directory, so every path it sees is absolute.
	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("resolve output dir: %w", err))
	}
	req.OutputDir = outDir
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("create output dir: %w", err))
	}

	segments, err := a.writeSegments(ctx, req.OutputDir, req.Segments)
	if err != nil {
		return model.Episode{}, apperror.Encoding(err)
	}

	inputs := make([]string, 0, len(segments)+2)
	if intro := a.existingAsset(ctx, "intro", a.cfg.Assets.Intro); intro != "" {
		inputs = append(inputs, intro)
	}
	for _, seg := range segments {
		inputs = append(inputs, seg.Path)
	}
	if outro := a.existingAsset(ctx, "outro", a.cfg.Assets.Outro); outro != "" {
		inputs = append(inputs, outro)
	}

	ep := model.Episode{
		Date:      req.Date,
		Title:     req.Title,
		Dir:       req.OutputDir,
		WAVPath:   filepath.Join(req.OutputDir, episodeWAV),
		AudioPath: filepath.Join(req.OutputDir, episodeMP3),
		Segments:  segments,
		Papers:    req.Papers,
	}

	a.logger.Info(ctx, "Joining %d audio input(s) into %s", len(inputs), ep.WAVPath)
	if _, err := a.ffmpeg(ctx, req.OutputDir, concatArgs(inputs, a.cfg.FFmpeg.SampleRate, ep.WAVPath)...); err != nil {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("ffmpeg concat: %w", err))
	}

	a.logger.Info(ctx, "Converting wav to mp3: %s", ep.AudioPath)
	if _, err := a.ffmpeg(ctx, req.OutputDir, mp3Args(ep.WAVPath, a.cfg.FFmpeg.Quality, ep.AudioPath)...); err != nil {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("ffmpeg mp3: %w", err))
	}

	if err := a.tagMP3(ep.AudioPath, req); err != nil {
		a.logger.Warn(ctx, "Failed to write ID3 tags to %s: %v", ep.AudioPath, err)
	}

	if a.cfg.FFmpeg.RenderVideo {
		if bg := a.existingAsset(ctx, "background", a.cfg.Assets.Background); bg != "" {
			ep.VideoPath = filepath.Join(req.OutputDir, episodeMP4)
			a.logger.Info(ctx, "Creating mp4 file: %s", ep.VideoPath)
			if _, err := a.ffmpeg(ctx, req.OutputDir, mp4Args(bg, ep.AudioPath, ep.VideoPath)...); err != nil {
				return model.Episode{}, apperror.Encoding(fmt.Errorf("ffmpeg mp4: %w", err))
			}
		} else {
			a.logger.Warn(ctx, "Video rendering enabled but no background image found, skipping mp4")
		}
	}

	probe, err := ffprobe.Inspect(ctx, a.executor, a.cfg.FFmpeg.ProbeBinary, ep.AudioPath)
	if err != nil {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("measure episode: %w", err))
	}
	if probe.AudioStreamCount() == 0 {
		return model.Episode{}, apperror.Encoding(fmt.Errorf("measure episode: %s has no audio stream", ep.AudioPath))
	}
	ep.Duration = probe.Duration()

	a.logger.Info(ctx, "Episode assembled: %s (%s, took %s)", ep.AudioPath, ep.Duration.Round(time.Second), time.Since(startTime).Round(time.Millisecond))
	return ep, nil
}

// writeSegments stores each in-memory segment as segment_<i>.wav and returns
// copies carrying their path and index.
func (a *implAssembler) writeSegments(ctx context.Context, dir string, segments []model.AudioSegment) ([]model.AudioSegment, error) {
	out := make([]model.AudioSegment, len(segments))
	for i, seg := range segments {
		seg.Index = i
		if len(seg.Data) == 0 {
			if seg.Path == "" {
				return nil, fmt.Errorf("segment %d (%s) has no audio", i, seg.PaperID)
			}
			out[i] = seg
			continue
		}

		seg.Path = filepath.Join(dir, fmt.Sprintf("segment_%d.wav", i))
		if err := os.WriteFile(seg.Path, seg.Data, 0644); err != nil {
			return nil, fmt.Errorf("write segment %d: %w", i, err)
		}
		a.logger.Debug(ctx, "Wrote segment %d for %s: %s", i, seg.PaperID, seg.Path)
		out[i] = seg
	}
	return out, nil
}

// existingAsset resolves an asset name and returns "" when it is unset or
// missing on disk.
func (a *implAssembler) existingAsset(ctx context.Context, kind, name string) string {
	path := a.cfg.AssetPath(name)
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		a.logger.Warn(ctx, "Skipping %s asset %s: %v", kind, path, err)
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// ffmpeg runs the encoder inside the episode directory so any side files it
// writes stay with the episode.
func (a *implAssembler) ffmpeg(ctx context.Context, dir string, args ...string) (string, error) {
	return a.executor.ExecuteInDir(ctx, dir, a.cfg.FFmpeg.Binary, args...)
}
