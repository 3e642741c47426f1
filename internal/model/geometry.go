package model

// Rect is an axis-aligned rectangle in pixel space.
// Max coordinates are exclusive when used as an image region.
type Rect struct {
	MinX int `json:"minX"`
	MinY int `json:"minY"`
	MaxX int `json:"maxX"`
	MaxY int `json:"maxY"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() int { return r.MaxY - r.MinY }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Pad grows r by p pixels on every side.
func (r Rect) Pad(p int) Rect {
	return Rect{MinX: r.MinX - p, MinY: r.MinY - p, MaxX: r.MaxX + p, MaxY: r.MaxY + p}
}

// Clamp limits r to [0,0]-[width,height].
func (r Rect) Clamp(width, height int) Rect {
	return Rect{
		MinX: clamp(r.MinX, 0, width),
		MinY: clamp(r.MinY, 0, height),
		MaxX: clamp(r.MaxX, 0, width),
		MaxY: clamp(r.MaxY, 0, height),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
