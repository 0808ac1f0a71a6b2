package layers

import (
	"pixed/internal/document"
	"pixed/pkg/types"
)

// Patch is a partial layer update. Nil fields are left alone.
type Patch struct {
	Name    *string
	X       *float64
	Y       *float64
	Width   *float64
	Height  *float64
	Visible *bool
	Opacity *float64
	Blend   *types.BlendMode
}

// Position patches the top-left corner.
func Position(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// Size patches width and height.
func Size(w, h float64) Patch {
	return Patch{Width: &w, Height: &h}
}

// Opacity patches opacity.
func Opacity(v float64) Patch {
	return Patch{Opacity: &v}
}

// Blend patches the blend mode.
func Blend(mode types.BlendMode) Patch {
	return Patch{Blend: &mode}
}

// Visible patches visibility.
func Visible(v bool) Patch {
	return Patch{Visible: &v}
}

// Rename patches the name.
func Rename(name string) Patch {
	return Patch{Name: &name}
}

// And combines patches; later fields win.
func (p Patch) And(o Patch) Patch {
	if o.Name != nil {
		p.Name = o.Name
	}
	if o.X != nil {
		p.X = o.X
	}
	if o.Y != nil {
		p.Y = o.Y
	}
	if o.Width != nil {
		p.Width = o.Width
	}
	if o.Height != nil {
		p.Height = o.Height
	}
	if o.Visible != nil {
		p.Visible = o.Visible
	}
	if o.Opacity != nil {
		p.Opacity = o.Opacity
	}
	if o.Blend != nil {
		p.Blend = o.Blend
	}
	return p
}

func (p Patch) apply(l *document.Layer) bool {
	before := *l
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Width != nil && *p.Width > 0 {
		l.Width = *p.Width
	}
	if p.Height != nil && *p.Height > 0 {
		l.Height = *p.Height
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	if !l.Background {
		if p.X != nil {
			l.X = *p.X
		}
		if p.Y != nil {
			l.Y = *p.Y
		}
		if p.Opacity != nil {
			l.Opacity = types.Clamp(*p.Opacity, 0, 1)
		}
		if p.Blend != nil && p.Blend.Valid() {
			l.Blend = *p.Blend
		}
	}
	return *l != before
}
