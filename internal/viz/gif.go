package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
)

// Each braille cell rasterises to an 8x16 pixel block.
const (
	cellW = 8
	cellH = 16
)

// Rasterize renders the lit dots of c into a two-colour paletted image.
func Rasterize(c *Canvas, fg color.Color) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*cellW, c.Height*cellH), color.Palette{color.Black, fg})
	dotW, dotH := cellW/2, cellH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := int(c.Grid[row][col] - blank)
			if pattern <= 0 {
				continue
			}
			baseX, baseY := col*cellW, row*cellH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, 1)
						}
					}
				}
			}
		}
	}
	return img
}

// Recorder collects canvas frames for an animated GIF.
type Recorder struct {
	Delay  int // hundredths of a second per frame
	Color  color.Color
	frames []*image.Paletted
}

func NewRecorder() *Recorder {
	return &Recorder{Delay: 2, Color: color.White}
}

func (r *Recorder) Capture(c *Canvas) { r.frames = append(r.frames, Rasterize(c, r.Color)) }
func (r *Recorder) Len() int          { return len(r.frames) }
func (r *Recorder) Reset()            { r.frames = nil }

func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.Delay)
	}
	return gif.EncodeAll(w, &anim)
}

// Save writes the recording to path.
func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
