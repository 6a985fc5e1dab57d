package scene

import (
	"github.com/chewxy/math32"

	"backdrop-engine/core"
	"backdrop-engine/math"
)

// CreateTorus generates a torus lying in the XY plane around the Z axis.
func CreateTorus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	if majorSegments < 3 {
		majorSegments = 3
	}
	if minorSegments < 3 {
		minorSegments = 3
	}

	var vertices []core.Vertex
	var indices []uint32

	for j := 0; j <= minorSegments; j++ {
		for i := 0; i <= majorSegments; i++ {
			u := float32(i) / float32(majorSegments) * 2 * math32.Pi
			v := float32(j) / float32(minorSegments) * 2 * math32.Pi
			cosU, sinU := math32.Cos(u), math32.Sin(u)
			cosV, sinV := math32.Cos(v), math32.Sin(v)

			pos := math.Vec3{
				X: (majorRadius + minorRadius*cosV) * cosU,
				Y: (majorRadius + minorRadius*cosV) * sinU,
				Z: minorRadius * sinV,
			}
			center := math.Vec3{X: majorRadius * cosU, Y: majorRadius * sinU}

			vertices = append(vertices, core.Vertex{
				Position: pos,
				Normal:   pos.Sub(center).Normalize(),
				UV:       math.Vec2{X: float32(i) / float32(majorSegments), Y: float32(j) / float32(minorSegments)},
				Color:    core.ColorWhite,
			})
		}
	}

	stride := majorSegments + 1
	for j := 1; j <= minorSegments; j++ {
		for i := 1; i <= majorSegments; i++ {
			a := uint32(stride*j + i - 1)
			b := uint32(stride*(j-1) + i - 1)
			c := uint32(stride*(j-1) + i)
			d := uint32(stride*j + i)

			indices = append(indices, a, b, d)
			indices = append(indices, b, c, d)
		}
	}

	return CreateMeshFromData("Torus", vertices, indices)
}

// CreatePlane generates a plane in the XY plane facing +Z, with UV (0,0)
// at the bottom-left corner.
func CreatePlane(width, height float32, subdivisions int) *Mesh {
	if subdivisions < 1 {
		subdivisions = 1
	}

	var vertices []core.Vertex
	var indices []uint32

	halfW := width / 2.0
	halfH := height / 2.0

	for y := 0; y <= subdivisions; y++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(y) / float32(subdivisions)

			vertices = append(vertices, core.Vertex{
				Position: math.Vec3{
					X: -halfW + u*width,
					Y: -halfH + v*height,
					Z: 0,
				},
				Normal: math.Vec3Front,
				UV:     math.Vec2{X: u, Y: v},
				Color:  core.ColorWhite,
			})
		}
	}

	row := uint32(subdivisions + 1)
	for y := 0; y < subdivisions; y++ {
		for x := 0; x < subdivisions; x++ {
			bottomLeft := uint32(y)*row + uint32(x)
			bottomRight := bottomLeft + 1
			topLeft := bottomLeft + row
			topRight := topLeft + 1

			indices = append(indices, bottomLeft, bottomRight, topLeft)
			indices = append(indices, bottomRight, topRight, topLeft)
		}
	}

	return CreateMeshFromData("Plane", vertices, indices)
}

// CreateBox generates an axis-aligned box centred on the origin.
func CreateBox(width, height, depth float32) *Mesh {
	hx, hy, hz := width/2, height/2, depth/2
	faces := []struct {
		normal, u, v math.Vec3
	}{
		{math.Vec3Right, math.Vec3Back, math.Vec3Up},
		{math.Vec3Left, math.Vec3Front, math.Vec3Up},
		{math.Vec3Up, math.Vec3Right, math.Vec3Back},
		{math.Vec3Down, math.Vec3Right, math.Vec3Front},
		{math.Vec3Front, math.Vec3Right, math.Vec3Up},
		{math.Vec3Back, math.Vec3Left, math.Vec3Up},
	}
	half := math.Vec3{X: hx, Y: hy, Z: hz}

	var vertices []core.Vertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(vertices))
		center := f.normal.MulVec(half)
		du := f.u.MulVec(half)
		dv := f.v.MulVec(half)
		corners := [4]struct {
			su, sv float32
		}{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, c := range corners {
			vertices = append(vertices, core.Vertex{
				Position: center.Add(du.Mul(c.su)).Add(dv.Mul(c.sv)),
				Normal:   f.normal,
				UV:       math.Vec2{X: (c.su + 1) / 2, Y: (c.sv + 1) / 2},
				Color:    core.ColorWhite,
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return CreateMeshFromData("Box", vertices, indices)
}
