package gpu_test

import (
	"errors"
	"testing"

	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/gpu/soft"
)

func TestDoubleFieldSwapParity(t *testing.T) {
	dev := soft.New(16, 16)
	df, err := gpu.NewDoubleField(dev, 8, 8, gpu.FormatRG16F, gpu.FilterLinear)
	if err != nil {
		t.Fatalf("NewDoubleField: %v", err)
	}
	defer df.Unload()

	first := df.Read()
	for i := 1; i <= 5; i++ {
		df.Swap()
		if df.Read() == df.Write() {
			t.Fatalf("swap %d: read and write are the same slot", i)
		}
		wantFirst := i%2 == 0
		if (df.Read() == first) != wantFirst {
			t.Errorf("swap %d: read slot parity wrong", i)
		}
		if df.ReadIndex() != i%2 {
			t.Errorf("swap %d: ReadIndex = %d, want %d", i, df.ReadIndex(), i%2)
		}
	}
	if df.Swaps() != 5 {
		t.Errorf("Swaps = %d, want 5", df.Swaps())
	}
}

func TestDoubleFieldZeroInitialized(t *testing.T) {
	dev := soft.New(16, 16)
	df, err := gpu.NewDoubleField(dev, 4, 4, gpu.FormatRGBA16F, gpu.FilterNearest)
	if err != nil {
		t.Fatalf("NewDoubleField: %v", err)
	}
	for slot := 0; slot < 2; slot++ {
		px, err := dev.ReadPixels(df.Slot(slot).Texture())
		if err != nil {
			t.Fatalf("ReadPixels: %v", err)
		}
		for _, v := range px {
			if v != 0 {
				t.Fatalf("slot %d not zeroed", slot)
			}
		}
	}
}

func TestNewFieldRejectsBadSize(t *testing.T) {
	dev := soft.New(16, 16)
	if _, err := gpu.NewField(dev, 0, 4, gpu.FormatR16F, gpu.FilterNearest); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := gpu.NewField(dev, 4, 4, gpu.Format{Channels: 5}, gpu.FilterNearest); !errors.Is(err, gpu.ErrUnsupportedFormat) {
		t.Errorf("5-channel field error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDoubleFieldCleansUpOnFailure(t *testing.T) {
	dev := soft.New(16, 16, soft.WithUnsupported(gpu.PrecisionHalf))
	_, err := gpu.NewDoubleField(dev, 4, 4, gpu.FormatR16F, gpu.FilterNearest)
	if !errors.Is(err, gpu.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestCheckDrawSurfaceTarget(t *testing.T) {
	dev := soft.New(16, 16)
	f, _ := gpu.NewField(dev, 4, 4, gpu.FormatR16F, gpu.FilterNearest)
	prog, _ := dev.Compile(gpu.PassClear)

	if err := gpu.CheckDraw(prog, gpu.ClearParams{Source: f.Texture(), Value: 0.5}, nil); err != nil {
		t.Errorf("surface draw rejected: %v", err)
	}
	if err := gpu.CheckDraw(prog, gpu.ClearParams{Source: f.Texture(), Value: 0.5}, f.Framebuffer()); !errors.Is(err, gpu.ErrFeedbackLoop) {
		t.Errorf("self draw error = %v, want ErrFeedbackLoop", err)
	}
}

func TestParsePassKind(t *testing.T) {
	for k := gpu.PassClear; k < gpu.NumPasses; k++ {
		got, err := gpu.ParsePassKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParsePassKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := gpu.ParsePassKind("bloom"); err == nil {
		t.Error("expected error for unknown pass")
	}
}
