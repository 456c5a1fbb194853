package imageviewer

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"

	"github.com/dshills/toolbox/internal/task"
)

// TaskType identifies thumbnail tasks for the configuration table.
const TaskType = "imageviewer.thumbnail"

// Thumbnail task parameters.
const (
	ParamSize   = "size"
	ParamOutput = "output"
)

// ThumbnailTask scales an image to fit a square and writes it as PNG.
type ThumbnailTask struct {
	task.ProgressEmitter

	id  string
	src string

	mu   sync.RWMutex
	size int
	dst  string
}

var (
	_ task.Task          = (*ThumbnailTask)(nil)
	_ task.Typed         = (*ThumbnailTask)(nil)
	_ task.Parameterized = (*ThumbnailTask)(nil)
)

// NewThumbnailTask creates a task writing <name>.thumb.png next to src.
func NewThumbnailTask(src string, size int) *ThumbnailTask {
	return &ThumbnailTask{
		id:   task.NewID(),
		src:  src,
		size: size,
		dst:  DefaultOutput(src),
	}
}

// DefaultOutput returns the default thumbnail path for src.
func DefaultOutput(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ".thumb.png"
}

// ID implements task.Task.
func (t *ThumbnailTask) ID() string { return t.id }

// Name implements task.Task.
func (t *ThumbnailTask) Name() string { return "thumbnail " + filepath.Base(t.src) }

// Type implements task.Typed.
func (t *ThumbnailTask) Type() string { return TaskType }

// Output returns the destination path.
func (t *ThumbnailTask) Output() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dst
}

// Params implements task.Parameterized.
func (t *ThumbnailTask) Params() []task.Param {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return []task.Param{
		{Name: ParamSize, Description: "longest edge in pixels", Value: strconv.Itoa(t.size)},
		{Name: ParamOutput, Description: "output file", Value: t.dst},
	}
}

// SetParam implements task.Parameterized.
func (t *ThumbnailTask) SetParam(name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch name {
	case ParamSize:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < MinSize || n > MaxSize {
			return fmt.Errorf("%w: %q", ErrInvalidSize, value)
		}
		t.size = n
	case ParamOutput:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("output must not be empty")
		}
		t.dst = value
	default:
		return fmt.Errorf("%w: %s", task.ErrUnknownParam, name)
	}
	return nil
}

// Run implements task.Task.
func (t *ThumbnailTask) Run(ctx context.Context) error {
	t.mu.RLock()
	size, dst := t.size, t.dst
	t.mu.RUnlock()

	t.report(0, "decoding")
	src, err := decode(t.src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.report(57, "scaling")
	thumb := Scale(src, size)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writePNG(dst, thumb); err != nil {
		return err
	}
	t.report(100, "done")
	return nil
}

func (t *ThumbnailTask) report(percent float64, message string) {
	t.Emit(task.Progress{TaskID: t.id, Percent: percent, Message: message})
}

// Scale returns img resized to fit within size x size, keeping its aspect
// ratio. Images already small enough are scaled to their own bounds.
func Scale(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func fit(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return size, max(h*size/w, 1)
	}
	return max(w*size/h, 1), size
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
