package common

// Row is one line of the layer list, topmost layer first.
type Row struct {
	ID         string
	Name       string
	Visible    bool
	Active     bool
	Background bool
	Opacity    float64
	Blend      string
	Width      int
	Height     int
	// Raster is the load state of the layer's pixels.
	Raster string
}

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	HasDocument() bool
	Canvas() string
	Rows() []Row
	Cursor() int
	Zoom() float64
	ShowHelp() bool
	HelpView() string
	StatusView() string
}
