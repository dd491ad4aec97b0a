package editor

import "math"

// Zoom limits and the factor applied per wheel notch.
const (
	MinZoom    = 0.25
	MaxZoom    = 2.0
	ZoomFactor = 1.1
)

// Camera maps world space onto the screen: screen = (world - Camera.X/Y) * Zoom.
// X and Y are the world coordinate shown at the top-left corner of the viewport.
type Camera struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultCamera shows the world origin at zoom 1.
func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}

// ToWorld applies the inverse camera transform to a screen point.
func (c Camera) ToWorld(screen Point) Point {
	return Point{X: screen.X/c.Zoom + c.X, Y: screen.Y/c.Zoom + c.Y}
}

// ToScreen applies the camera transform to a world point.
func (c Camera) ToScreen(world Point) Point {
	return Point{X: (world.X - c.X) * c.Zoom, Y: (world.Y - c.Y) * c.Zoom}
}

// Pan moves the camera opposite to a screen-space pointer delta, so the content follows the pointer.
func (c Camera) Pan(screenDelta Point) Camera {
	c.X -= screenDelta.X / c.Zoom
	c.Y -= screenDelta.Y / c.Zoom
	return c
}

// ZoomAt rescales by factor, clamped to [MinZoom, MaxZoom], keeping the world point under
// the screen anchor fixed.
func (c Camera) ZoomAt(anchor Point, factor float64) Camera {
	world := c.ToWorld(anchor)
	c.Zoom = ClampZoom(c.Zoom * factor)
	c.X = world.X - anchor.X/c.Zoom
	c.Y = world.Y - anchor.Y/c.Zoom
	return c
}

// CenterOn positions the camera so world is in the middle of a viewport of the given size.
func (c Camera) CenterOn(world Point, viewport Point) Camera {
	c.X = world.X - viewport.X/(2*c.Zoom)
	c.Y = world.Y - viewport.Y/(2*c.Zoom)
	return c
}

// Visible returns the world rectangle covered by a viewport of the given screen size.
func (c Camera) Visible(viewport Point) Rect {
	return Rect{X: c.X, Y: c.Y, W: viewport.X / c.Zoom, H: viewport.Y / c.Zoom}
}

// ClampZoom limits z to the supported range. Non-positive or NaN values reset to 1.
func ClampZoom(z float64) float64 {
	if z <= 0 || math.IsNaN(z) {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// WheelFactor converts a wheel delta into a zoom factor: scrolling up zooms in.
func WheelFactor(deltaY float64) float64 {
	switch {
	case deltaY < 0:
		return ZoomFactor
	case deltaY > 0:
		return 1 / ZoomFactor
	default:
		return 1
	}
}
