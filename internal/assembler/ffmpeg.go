package assembler

import (
	"fmt"
	"strings"
)

// concatArgs joins every input into one mono 16-bit WAV. Each input is
// resampled first so intro and outro assets may use any format.
func concatArgs(inputs []string, sampleRate int, output string) []string {
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var filter strings.Builder
	for k := range inputs {
		fmt.Fprintf(&filter, "[%d:a]aresample=%d,aformat=sample_fmts=s16:channel_layouts=mono[a%d];", k, sampleRate, k)
	}
	for k := range inputs {
		fmt.Fprintf(&filter, "[a%d]", k)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(inputs))

	return append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-c:a", "pcm_s16le",
		output,
	)
}

// -vn: audio only
// -q:a: VBR quality (0-9, 0 is best)
func mp3Args(input, quality, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", quality,
		output,
	}
}

// mp4Args loops the still image for the length of the audio.
// -c:a copy keeps the MP3 stream as is, -pix_fmt yuv420p keeps players happy.
func mp4Args(background, audio, output string) []string {
	return []string{
		"-y",
		"-loop", "1",
		"-i", background,
		"-i", audio,
		"-c:v", "libx264",
		"-c:a", "copy",
		"-shortest",
		"-pix_fmt", "yuv420p",
		output,
	}
}
