package gpu

import "fmt"

// Field is a fixed-size texture bundled with its framebuffer.
type Field struct {
	fb     Framebuffer
	filter Filter
}

// NewField allocates a zero-initialized field on dev.
func NewField(dev Device, width, height int, format Format, filter Filter) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: field size %dx%d", width, height)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("gpu: field format %s: %w", format, ErrUnsupportedFormat)
	}
	fb, err := dev.NewFramebuffer(width, height, format, filter)
	if err != nil {
		return nil, err
	}
	return &Field{fb: fb, filter: filter}, nil
}

// Texture returns the field's color texture.
func (f *Field) Texture() Texture { return f.fb.Texture() }

// Framebuffer returns the field as a render target.
func (f *Field) Framebuffer() Framebuffer { return f.fb }

// Width returns the field width in texels.
func (f *Field) Width() int { return f.fb.Texture().Width() }

// Height returns the field height in texels.
func (f *Field) Height() int { return f.fb.Texture().Height() }

// Format returns the allocated texture format.
func (f *Field) Format() Format { return f.fb.Texture().Format() }

// Filter returns the sampling filter.
func (f *Field) Filter() Filter { return f.filter }

// TexelSize returns the UV size of one texel.
func (f *Field) TexelSize() Vec2 { return TexelSize(f.Texture()) }

// Unload releases the framebuffer and its texture.
func (f *Field) Unload() {
	if f == nil || f.fb == nil {
		return
	}
	f.fb.Unload()
	f.fb = nil
}

// DoubleField is a two-slot ping-pong arena. Passes read Read() and write
// Write(); Swap flips which slot is which without touching texture data.
type DoubleField struct {
	slots [2]*Field
	read  int
	swaps uint64
}

// NewDoubleField allocates both slots with identical parameters.
func NewDoubleField(dev Device, width, height int, format Format, filter Filter) (*DoubleField, error) {
	a, err := NewField(dev, width, height, format, filter)
	if err != nil {
		return nil, err
	}
	b, err := NewField(dev, width, height, format, filter)
	if err != nil {
		a.Unload()
		return nil, err
	}
	return &DoubleField{slots: [2]*Field{a, b}}, nil
}

// Read returns the slot currently holding the latest contents.
func (d *DoubleField) Read() *Field { return d.slots[d.read] }

// Write returns the slot the next pass should render into.
func (d *DoubleField) Write() *Field { return d.slots[1-d.read] }

// Swap exchanges the read and write labels.
func (d *DoubleField) Swap() {
	d.read = 1 - d.read
	d.swaps++
}

// ReadIndex returns the arena slot currently labeled read (0 or 1).
func (d *DoubleField) ReadIndex() int { return d.read }

// Swaps returns how many times Swap has been called.
func (d *DoubleField) Swaps() uint64 { return d.swaps }

// Slot returns the field in arena slot i.
func (d *DoubleField) Slot(i int) *Field { return d.slots[i&1] }

// Width returns the field width in texels.
func (d *DoubleField) Width() int { return d.slots[0].Width() }

// Height returns the field height in texels.
func (d *DoubleField) Height() int { return d.slots[0].Height() }

// Format returns the allocated texture format.
func (d *DoubleField) Format() Format { return d.slots[0].Format() }

// TexelSize returns the UV size of one texel.
func (d *DoubleField) TexelSize() Vec2 { return d.slots[0].TexelSize() }

// Unload releases both slots.
func (d *DoubleField) Unload() {
	if d == nil {
		return
	}
	for _, s := range d.slots {
		s.Unload()
	}
}
