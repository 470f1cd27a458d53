// Package video streams rendered frames into ffmpeg.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ivlev/carrytales/internal/config"
)

type VideoEncoder interface {
	// Open starts an encoder reading raw RGBA frames of params' size.
	Open(ctx context.Context, videoPath string, params config.SegmentParams, encoderName string, quality int) (FrameWriter, error)
	// Finalize applies params.Filter to a finished segment and writes finalPath.
	Finalize(ctx context.Context, segmentPath, finalPath string, params config.SegmentParams, encoderName string, quality int) error
}

// FrameWriter accepts frames in presentation order.
type FrameWriter interface {
	WriteFrame(img image.Image) error
	Frames() int
	Close() error
}

type FFmpegEncoder struct {
	// Binary defaults to "ffmpeg" on PATH.
	Binary string
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

// DefaultQuality is a sensible quality value per encoder.
func DefaultQuality(encoderName string) int {
	switch encoderName {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

func qualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some builds, so quality maps to bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func (e *FFmpegEncoder) buildStreamArgs(videoPath string, params config.SegmentParams, encoderName string, quality int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}
	if params.Filter != "" {
		args = append(args, "-vf", params.Filter)
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", encoderName)
	args = append(args, qualityArgs(encoderName, quality)...)
	return append(args, videoPath)
}

func (e *FFmpegEncoder) buildFinalizeArgs(segmentPath, finalPath string, params config.SegmentParams, encoderName string, quality int) []string {
	args := []string{
		"-y",
		"-i", segmentPath,
		"-vf", params.Filter,
		"-t", fmt.Sprintf("%f", params.Duration),
		"-r", fmt.Sprintf("%d", params.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}
	args = append(args, qualityArgs(encoderName, quality)...)
	return append(args, finalPath)
}

func (e *FFmpegEncoder) Open(ctx context.Context, videoPath string, params config.SegmentParams, encoderName string, quality int) (FrameWriter, error) {
	cmd := exec.CommandContext(ctx, e.binary(), e.buildStreamArgs(videoPath, params, encoderName, quality)...)
	s := &Stream{cmd: cmd, width: params.Width, height: params.Height}
	cmd.Stdout = &s.out
	cmd.Stderr = &s.out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	s.stdin = stdin
	return s, nil
}

func (e *FFmpegEncoder) Finalize(ctx context.Context, segmentPath, finalPath string, params config.SegmentParams, encoderName string, quality int) error {
	if params.Filter == "" {
		if err := os.Rename(segmentPath, finalPath); err != nil {
			return fmt.Errorf("move segment: %w", err)
		}
		return nil
	}
	cmd := exec.CommandContext(ctx, e.binary(), e.buildFinalizeArgs(segmentPath, finalPath, params, encoderName, quality)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg finalize error: %w, output: %s", err, tail(out))
	}
	return nil
}

// Stream is a running ffmpeg process fed over stdin.
type Stream struct {
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	out           bytes.Buffer
	width, height int
	frames        int
	closed        bool
}

// WriteFrame sends img as one raw RGBA frame. Frames of the wrong size are
// rejected since ffmpeg would silently misalign every later frame.
func (s *Stream) WriteFrame(img image.Image) error {
	if s.closed {
		return errors.New("write to closed stream")
	}
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	s.frames++
	return nil
}

func (s *Stream) Frames() int {
	return s.frames
}

// Close ends the input and waits for ffmpeg to finish the file.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, tail(s.out.Bytes()))
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// tail keeps the last lines of ffmpeg output for error messages.
func tail(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}
	return strings.Join(lines, "\n")
}
