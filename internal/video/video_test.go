package video

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/carrytales/internal/config"
)

func TestBuildStreamArgs(t *testing.T) {
	e := &FFmpegEncoder{}
	p := config.SegmentParams{Width: 640, Height: 360, FPS: 30}

	tests := []struct {
		encoder string
		quality int
		tail    []string
	}{
		{"libx264", 23, []string{"-c:v", "libx264", "-crf", "23", "-preset", "medium", "out.mp4"}},
		{"h264_nvenc", 28, []string{"-c:v", "h264_nvenc", "-cq", "28", "out.mp4"}},
		{"h264_videotoolbox", 75, []string{"-c:v", "h264_videotoolbox", "-b:v", "7500k", "out.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			args := e.buildStreamArgs("out.mp4", p, tt.encoder, tt.quality)
			assert.Equal(t, []string{"-y", "-f", "rawvideo", "-pixel_format", "rgba", "-video_size", "640x360", "-framerate", "30", "-i", "-"}, args[:11])
			assert.Equal(t, tt.tail, args[len(args)-len(tt.tail):])
			assert.NotContains(t, args, "-vf")
		})
	}

	p.Filter = "scale=320:180"
	assert.Contains(t, e.buildStreamArgs("out.mp4", p, "libx264", 23), "scale=320:180")
}

func TestBuildFinalizeArgs(t *testing.T) {
	e := &FFmpegEncoder{}
	p := config.SegmentParams{FPS: 24, Duration: 12.5, Filter: "fade=t=in:st=0:d=0.500"}
	args := e.buildFinalizeArgs("seg.mp4", "final.mp4", p, "libx264", 20)
	assert.Equal(t, []string{
		"-y", "-i", "seg.mp4", "-vf", "fade=t=in:st=0:d=0.500", "-t", "12.500000", "-r", "24",
		"-pix_fmt", "yuv420p", "-c:v", "libx264", "-crf", "20", "-preset", "medium", "final.mp4",
	}, args)
}

func TestDefaultQuality(t *testing.T) {
	assert.Equal(t, 75, DefaultQuality("h264_videotoolbox"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestWriteRawRGBAPacksSubImages(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	full.Set(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	sub := full.SubImage(image.Rect(1, 1, 3, 2))

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, sub))
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, buf.Bytes())
}

// fakeFFmpeg writes a script that copies stdin, or the -i file, to the last
// argument.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := `#!/bin/sh
eval "out=\${$#}"
if [ "$2" = "-i" ]; then cat "$3" > "$out"; else cat > "$out"; fi
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestStreamWritesFrames(t *testing.T) {
	e := &FFmpegEncoder{Binary: fakeFFmpeg(t)}
	out := filepath.Join(t.TempDir(), "seg.mp4")
	p := config.SegmentParams{Width: 2, Height: 2, FPS: 30}

	w, err := e.Open(context.Background(), out, p, "libx264", 23)
	require.NoError(t, err)
	frame := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, w.WriteFrame(frame))
	require.NoError(t, w.WriteFrame(frame))
	assert.ErrorContains(t, w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 3, 2))), "does not match")
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Frames())
	assert.Error(t, w.WriteFrame(frame))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data, 2*2*2*4)

	final := filepath.Join(t.TempDir(), "final.mp4")
	p.Duration, p.Filter = 1, "fade=t=in:st=0:d=0.1"
	require.NoError(t, e.Finalize(context.Background(), out, final, p, "libx264", 23))
	copied, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, data, copied)
}

func TestFinalizeWithoutFilterMoves(t *testing.T) {
	dir := t.TempDir()
	seg := filepath.Join(dir, "seg.mp4")
	final := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(seg, []byte("video"), 0o644))

	e := &FFmpegEncoder{Binary: "/nonexistent/ffmpeg"}
	require.NoError(t, e.Finalize(context.Background(), seg, final, config.SegmentParams{}, "libx264", 23))
	assert.NoFileExists(t, seg)
	assert.FileExists(t, final)
}

func TestStreamReportsFailure(t *testing.T) {
	e := &FFmpegEncoder{Binary: "/nonexistent/ffmpeg"}
	_, err := e.Open(context.Background(), "x.mp4", config.SegmentParams{Width: 2, Height: 2, FPS: 1}, "libx264", 23)
	assert.ErrorContains(t, err, "ffmpeg start error")
}
