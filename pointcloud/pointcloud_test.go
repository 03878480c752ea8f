package pointcloud

import (
	"bytes"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeFalse)

	// duplicates are kept, in order
	pc.Append(r3.Vector{})
	pc.Append(r3.Vector{})
	pc.Append(r3.Vector{X: -1, Y: 2, Z: 3})
	test.That(t, pc.Size(), test.ShouldEqual, 3)
	p, c := pc.At(2)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: -1, Y: 2, Z: 3})
	test.That(t, c, test.ShouldResemble, color.NRGBA{})
	test.That(t, pc.Colors(), test.ShouldBeNil)

	meta := pc.MetaData()
	test.That(t, meta.MinX, test.ShouldEqual, -1)
	test.That(t, meta.MaxX, test.ShouldEqual, 0)
	test.That(t, meta.MaxZ, test.ShouldEqual, 3)

	red := color.NRGBA{R: 255, A: 255}
	pc.AppendColored(r3.Vector{Z: 1}, red)
	pc.Append(r3.Vector{Z: 2})
	test.That(t, pc.MetaData().HasColor, test.ShouldBeTrue)
	test.That(t, pc.Colors(), test.ShouldHaveLength, 5)
	_, c = pc.At(3)
	test.That(t, c, test.ShouldResemble, red)

	count := 0
	pc.Iterate(func(i int, p r3.Vector, c color.NRGBA) bool {
		count++
		return i < 1
	})
	test.That(t, count, test.ShouldEqual, 2)
}

func TestNewFromPositions(t *testing.T) {
	_, err := NewFromPositions([]r3.Vector{{}, {}}, []color.NRGBA{{}})
	test.That(t, err, test.ShouldNotBeNil)

	pc, err := NewFromPositions([]r3.Vector{{X: 1}, {X: 2}}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 2)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeFalse)
}

func TestPCDRoundTrip(t *testing.T) {
	positions := []r3.Vector{{X: 0.5, Y: -0.25, Z: 1}, {X: 0.5, Y: -0.25, Z: 1}, {X: -3, Y: 0.125, Z: 0}}
	colors := []color.NRGBA{{R: 1, G: 2, B: 3, A: 255}, {R: 255, G: 128, B: 0, A: 255}, {B: 255, A: 255}}
	colored, err := NewFromPositions(positions, colors)
	test.That(t, err, test.ShouldBeNil)
	plain, err := NewFromPositions(positions, nil)
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		name  string
		cloud *Cloud
		typ   PCDType
	}{
		{"ascii colored", colored, PCDAscii},
		{"binary colored", colored, PCDBinary},
		{"ascii plain", plain, PCDAscii},
		{"binary plain", plain, PCDBinary},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			test.That(t, ToPCD(tc.cloud, &buf, tc.typ), test.ShouldBeNil)
			back, err := ReadPCD(&buf)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, back.Size(), test.ShouldEqual, tc.cloud.Size())
			test.That(t, back.MetaData().HasColor, test.ShouldEqual, tc.cloud.MetaData().HasColor)
			for i := 0; i < back.Size(); i++ {
				p, c := back.At(i)
				wantP, wantC := tc.cloud.At(i)
				test.That(t, p, test.ShouldResemble, wantP)
				test.That(t, c, test.ShouldResemble, wantC)
			}
		})
	}

	t.Run("file", func(t *testing.T) {
		fn := filepath.Join(t.TempDir(), "cloud.pcd")
		test.That(t, WriteToPCDFile(colored, fn, PCDBinary), test.ShouldBeNil)
		back, err := ReadPCDFile(fn)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.Size(), test.ShouldEqual, 3)
	})

	t.Run("compressed", func(t *testing.T) {
		var buf bytes.Buffer
		test.That(t, ToPCD(colored, &buf, PCDCompressed), test.ShouldNotBeNil)
	})
}

func TestReadPCDErrors(t *testing.T) {
	header := "VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 2\nHEIGHT 1\n" +
		"VIEWPOINT 0 0 0 1 0 0 0\n"

	_, err := ReadPCD(strings.NewReader(header + "POINTS 3\nDATA ascii\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader(header + "POINTS 2\nDATA ascii\n1 2 3\n"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader(header + "POINTS 2\nDATA binary\n" + "short"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ReadPCD(strings.NewReader("VERSION .5\n"))
	test.That(t, err, test.ShouldNotBeNil)

	// comments and a missing final newline are fine
	cloud, err := ReadPCD(strings.NewReader("# made by hand\n" + header + "POINTS 2\nDATA ascii\n1 2 3\n4 5 6"))
	test.That(t, err, test.ShouldBeNil)
	p, _ := cloud.At(1)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
}
