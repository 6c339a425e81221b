package viz

import (
	"strings"

	"github.com/san-kum/nbodyquad/internal/barneshut"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const blank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels; out of range coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &^= rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

// IsSet reports whether sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Lit counts lit sub-pixels.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := int(r - blank); bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// Project maps a world point inside d to sub-pixel coordinates, with y
// growing upward in world space. ok is false outside d.
func (c *Canvas) Project(p barneshut.Vec, d barneshut.Domain) (x, y int, ok bool) {
	if !d.Contains(p) || d.Half <= 0 {
		return 0, 0, false
	}
	lo := d.Min()
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	u := (p[0] - lo[0]) / (2 * d.Half)
	v := (p[1] - lo[1]) / (2 * d.Half)
	return int(u*w + 0.5), int((1-v)*h + 0.5), true
}

// Plot lights one sub-pixel per particle and returns how many landed on
// the canvas.
func (c *Canvas) Plot(pos []barneshut.Vec, d barneshut.Domain) int {
	drawn := 0
	for _, p := range pos {
		if x, y, ok := c.Project(p, d); ok {
			c.Set(x, y)
			drawn++
		}
	}
	return drawn
}

type cell struct {
	id     barneshut.NodeID
	center barneshut.Vec
	half   float64
	depth  int
}

// DrawTree outlines every internal cell of the quadtree down to maxDepth
// levels below the root. The walk uses an explicit stack.
func (c *Canvas) DrawTree(pool *barneshut.NodePool, d barneshut.Domain, maxDepth int) {
	if pool.Len() == 0 {
		return
	}
	stack := []cell{{id: barneshut.Root, center: d.Center, half: d.Half}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := pool.Node(top.id)
		if n.Occupancy().Tag() != barneshut.TagInternal {
			continue
		}
		box := barneshut.Domain{Center: top.center, Half: top.half}
		lo, hi := box.Min(), box.Max()
		x0, y1, _ := c.Project(lo, d)
		x1, y0, _ := c.Project(hi, d)
		c.DrawRect(x0, y0, x1, y1)

		if top.depth >= maxDepth {
			continue
		}
		for q := barneshut.Quadrant(0); q < barneshut.Branch; q++ {
			child, ok := n.Child(q)
			if !ok {
				continue
			}
			cc, ch := q.Frame(top.center, top.half)
			stack = append(stack, cell{id: child, center: cc, half: ch, depth: top.depth + 1})
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
