package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/daily-papers/internal/apperror"
	"github.com/nguyentantai21042004/daily-papers/internal/gemini"
	"github.com/nguyentantai21042004/daily-papers/internal/model"
	"github.com/nguyentantai21042004/daily-papers/pkg/wav"
)

const (
	speakerOne = "Speaker 1"
	speakerTwo = "Speaker 2"
)

// Synthesize sends the script to the TTS model and returns the speech as a
// single WAV segment.
func (s *implSynthesizer) Synthesize(ctx context.Context, script model.Script) (model.AudioSegment, error) {
	if strings.TrimSpace(script.Text) == "" {
		return model.AudioSegment{}, apperror.Synthesis(script.PaperID, fmt.Errorf("empty script"))
	}

	s.logger.Info(ctx, "Generating speech for %s using model: %s", script.PaperID, s.model)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(script.Text)}, genai.RoleUser)}
	resp, err := s.generator.GenerateContent(callCtx, s.model, contents, s.speechConfig())
	if err != nil {
		return model.AudioSegment{}, apperror.Synthesis(script.PaperID, err)
	}

	blobs := gemini.InlineData(resp)
	if len(blobs) == 0 {
		return model.AudioSegment{}, apperror.Synthesis(script.PaperID, fmt.Errorf("response contained no audio data"))
	}

	data, err := toWAV(blobs)
	if err != nil {
		return model.AudioSegment{}, apperror.Synthesis(script.PaperID, err)
	}

	duration, err := wav.Duration(data)
	if err != nil {
		return model.AudioSegment{}, apperror.Synthesis(script.PaperID, fmt.Errorf("measure audio: %w", err))
	}

	s.logger.Info(ctx, "Speech for %s ready: %d chunk(s), %s", script.PaperID, len(blobs), duration.Round(100*time.Millisecond))
	return model.AudioSegment{
		PaperID:  script.PaperID,
		MIMEType: "audio/wav",
		Data:     data,
		Duration: duration,
	}, nil
}

func (s *implSynthesizer) speechConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(s.temperature),
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			MultiSpeakerVoiceConfig: &genai.MultiSpeakerVoiceConfig{
				SpeakerVoiceConfigs: []*genai.SpeakerVoiceConfig{
					voice(speakerOne, s.voiceOne),
					voice(speakerTwo, s.voiceTwo),
				},
			},
		},
	}
}

func voice(speaker, name string) *genai.SpeakerVoiceConfig {
	return &genai.SpeakerVoiceConfig{
		Speaker: speaker,
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: name},
		},
	}
}

// toWAV joins the audio chunks into one WAV. Raw PCM chunks take their format
// from the MIME type and WAV chunks from their header; all chunks must agree.
func toWAV(blobs []*genai.Blob) ([]byte, error) {
	if len(blobs) == 1 && wav.IsWAV(blobs[0].Data) {
		if _, _, err := wav.Info(blobs[0].Data); err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		return blobs[0].Data, nil
	}

	var (
		format wav.Format
		pcm    []byte
	)
	for i, b := range blobs {
		f := wav.ParseMIME(b.MIMEType)
		samples := b.Data
		if wav.IsWAV(b.Data) {
			var err error
			f, samples, err = wav.PCM(b.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio chunk %d: %w", i, err)
			}
		}
		if i == 0 {
			format = f
		} else if f != format {
			return nil, fmt.Errorf("audio chunk %d format %+v differs from %+v", i, f, format)
		}
		pcm = append(pcm, samples...)
	}
	return wav.Encode(pcm, format), nil
}
