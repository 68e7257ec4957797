package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"file-utility-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// DefaultBinary is the ffmpeg executable looked up on PATH
const DefaultBinary = "ffmpeg"

// Max bytes of ffmpeg output kept in an error
const outputTail = 512

var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

// Transformer struct - Audio and video conversions through an ffmpeg process
type Transformer struct {
	binary string
}

// NewTransformer func - Creates new ffmpeg transformer
func NewTransformer(binary string) *Transformer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Transformer{binary: binary}
}

// ConvertAudio re-encodes src as mp3 or wav
func (t *Transformer) ConvertAudio(ctx context.Context, src, dst, format string) error {
	args, err := audioArgs(src, dst, format)
	if err != nil {
		return err
	}
	return t.run(ctx, dst, args)
}

// ConvertVideo re-encodes src as H.264/AAC mp4
func (t *Transformer) ConvertVideo(ctx context.Context, src, dst string) error {
	return t.run(ctx, dst, videoArgs(src, dst))
}

// VideoToGIF renders src as an animated gif
func (t *Transformer) VideoToGIF(ctx context.Context, src, dst string) error {
	return t.run(ctx, dst, gifArgs(src, dst))
}

// CompressVideo scales src down to at most 1080 pixels on the long side and lowers the bitrate
func (t *Transformer) CompressVideo(ctx context.Context, src, dst string) error {
	return t.run(ctx, dst, compressArgs(src, dst))
}

func (t *Transformer) run(ctx context.Context, dst string, args []string) error {
	path, err := lookPath(t.binary)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrMissingTool, t.binary)
	}

	logrus.Debugf("Running %s %s", path, strings.Join(args, " "))
	cmd := commandContext(ctx, path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(dst)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(output))
	}
	return nil
}

func audioArgs(src, dst, format string) ([]string, error) {
	switch format {
	case "mp3":
		return []string{"-y", "-i", src, "-vn", "-codec:a", "libmp3lame", "-q:a", "2", dst}, nil
	case "wav":
		return []string{"-y", "-i", src, "-vn", "-codec:a", "pcm_s16le", dst}, nil
	}
	return nil, fmt.Errorf("unsupported audio format %q", format)
}

func videoArgs(src, dst string) []string {
	return []string{
		"-y", "-i", src,
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	}
}

func gifArgs(src, dst string) []string {
	return []string{
		"-y", "-i", src,
		"-vf", "fps=10,scale=480:-2:flags=lanczos",
		"-loop", "0",
		dst,
	}
}

func compressArgs(src, dst string) []string {
	// Only downscale; -2 keeps the other side even as libx264 requires
	scale := "scale='if(gte(iw,ih),min(1080,iw),-2)':'if(gte(iw,ih),-2,min(1080,ih))'"
	return []string{
		"-y", "-i", src,
		"-vf", scale,
		"-c:v", "libx264", "-preset", "veryfast", "-b:v", "1200k", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	}
}

func tail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > outputTail {
		start := len(text) - outputTail
		// Cut on a rune boundary
		for start < len(text) && !utf8.RuneStart(text[start]) {
			start++
		}
		text = text[start:]
	}
	return text
}
