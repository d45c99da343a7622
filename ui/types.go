// Package ui draws the viewer overlays: a descriptor-driven controls panel
// for live tuning and a heads-up display with frame and pass timings.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	WarnColor      rl.Color
	HotColor       rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	SliderHeight   int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 230},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.White,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		WarnColor:      rl.Orange,
		HotColor:       rl.Red,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     110,
		BarHeight:      12,
		SliderHeight:   14,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// WithColors returns a copy of the theme with the panel background and
// the header color replaced. Zero colors keep the defaults.
func (t Theme) WithColors(panel, header rl.Color) Theme {
	if panel != (rl.Color{}) {
		t.PanelBg = panel
	}
	if header != (rl.Color{}) {
		t.SectionHeader = header
	}
	return t
}
