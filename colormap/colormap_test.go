package colormap

import (
	"image/color"
	"math"
	"testing"

	"go.viam.com/test"
)

func TestNormalize(t *testing.T) {
	test.That(t, Normalize(1, 0, 2), test.ShouldEqual, 0.5)
	// no clamping
	test.That(t, Normalize(3, 0, 2), test.ShouldEqual, 1.5)
	test.That(t, Normalize(-1, 0, 2), test.ShouldEqual, -0.5)
}

func TestJet(t *testing.T) {
	jet := NewJet()
	dark := color.NRGBA{R: 0, G: 0, B: 128, A: 255}
	darkRed := color.NRGBA{R: 128, G: 0, B: 0, A: 255}

	test.That(t, jet.At(0), test.ShouldResemble, dark)
	test.That(t, jet.At(1), test.ShouldResemble, darkRed)
	test.That(t, jet.At(1), test.ShouldResemble, jet.Entry(LUTSize-1))
	test.That(t, jet.At(0.5).G, test.ShouldEqual, 255)

	t.Run("out of domain", func(t *testing.T) {
		test.That(t, jet.At(-0.5), test.ShouldResemble, jet.Under)
		test.That(t, jet.At(-0.5), test.ShouldResemble, dark)
		// truncation keeps values just under zero on the first entry
		test.That(t, jet.At(-0.001), test.ShouldResemble, dark)
		test.That(t, jet.At(1.5), test.ShouldResemble, jet.Over)
		test.That(t, jet.At(1.5), test.ShouldResemble, darkRed)
		test.That(t, jet.At(math.Inf(1)), test.ShouldResemble, darkRed)
		test.That(t, jet.At(math.Inf(-1)), test.ShouldResemble, dark)
		test.That(t, jet.At(math.NaN()), test.ShouldResemble, color.NRGBA{})
	})

	t.Run("deterministic", func(t *testing.T) {
		for _, x := range []float64{0.1, 0.37, 0.99} {
			test.That(t, NewJet().At(x), test.ShouldResemble, jet.At(x))
		}
	})

	t.Run("bin edges", func(t *testing.T) {
		test.That(t, jet.At(1./LUTSize), test.ShouldResemble, jet.Entry(1))
		test.That(t, jet.At(0.999), test.ShouldResemble, jet.Entry(LUTSize-1))
	})
}

func TestHeatAndNames(t *testing.T) {
	heat := NewHeat()
	test.That(t, heat.At(0), test.ShouldResemble, color.NRGBA{B: 255, A: 255})
	test.That(t, heat.At(1), test.ShouldResemble, color.NRGBA{R: 255, A: 255})

	m, ok := FromName("")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m.(*LUT).Name, test.ShouldEqual, "jet")
	m, ok = FromName("heat")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, m.(*LUT).Name, test.ShouldEqual, "heat")
	_, ok = FromName("viridis")
	test.That(t, ok, test.ShouldBeFalse)
}
