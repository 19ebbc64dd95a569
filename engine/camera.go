package engine

import (
	"pbrview/libutil"

	"github.com/charmbracelet/harmonica"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultYaw         = -90
	DefaultPitch       = 0
	DefaultFov         = 45
	DefaultSensitivity = 0.1
	// in units per delta step
	DefaultSpeed = 0.3
	MaxPitch     = 89
)

// pitch stays strictly inside ±MaxPitch
var pitchLimit = math32.Nextafter(MaxPitch, 0)

// Camera is a first person camera. Yaw and pitch are in degrees.
type Camera struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Right    mgl32.Vec3
	Up       mgl32.Vec3
	WorldUp  mgl32.Vec3

	Yaw, Pitch  float32
	Fov         float32
	Near, Far   float32
	Speed       float32
	Sensitivity float32

	// fly velocity, smoothed per axis
	velocity     [3]float64
	acceleration [3]float64
	spring       harmonica.Spring
}

func NewCamera(position mgl32.Vec3) *Camera {
	cam := &Camera{
		Position:    position,
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Yaw:         DefaultYaw,
		Pitch:       DefaultPitch,
		Fov:         DefaultFov,
		Near:        0.1,
		Far:         100,
		Speed:       DefaultSpeed,
		Sensitivity: DefaultSensitivity,
		spring:      harmonica.NewSpring(harmonica.FPS(60), 8.0, 1.0),
	}
	cam.UpdateVectors()
	return cam
}

// UpdateVectors recomputes the basis from yaw and pitch.
func (cam *Camera) UpdateVectors() {
	yaw, pitch := cam.Yaw*libutil.Deg2Rad, cam.Pitch*libutil.Deg2Rad
	cam.Front = mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
	cam.Right = cam.Front.Cross(cam.WorldUp).Normalize()
	cam.Up = cam.Right.Cross(cam.Front).Normalize()
}

// ProcessMouse turns the camera by a cursor delta in pixels. Screen y grows downwards.
func (cam *Camera) ProcessMouse(dx, dy float32) {
	cam.Yaw += dx * cam.Sensitivity
	cam.Pitch -= dy * cam.Sensitivity
	cam.Pitch = libutil.Clamp(cam.Pitch, -pitchLimit, pitchLimit)
	cam.UpdateVectors()
}

// Move flies the camera. dir is in camera space (x right, y up, z backwards) and
// the velocity eases towards dir scaled by Speed.
func (cam *Camera) Move(dir mgl32.Vec3, delta float32) {
	if dir.LenSqr() > 1 {
		dir = dir.Normalize()
	}
	for i := 0; i < 3; i++ {
		cam.velocity[i], cam.acceleration[i] = cam.spring.Update(cam.velocity[i], cam.acceleration[i], float64(dir[i]*cam.Speed))
	}

	forward := cam.Front.Mul(-float32(cam.velocity[2]))
	right := cam.Right.Mul(float32(cam.velocity[0]))
	up := cam.WorldUp.Mul(float32(cam.velocity[1]))
	cam.Position = cam.Position.Add(forward.Add(right).Add(up).Mul(delta))
}

// Velocity is the current smoothed fly velocity in camera space.
func (cam *Camera) Velocity() mgl32.Vec3 {
	return mgl32.Vec3{float32(cam.velocity[0]), float32(cam.velocity[1]), float32(cam.velocity[2])}
}

func (cam *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(cam.Position, cam.Position.Add(cam.Front), cam.Up)
}

func (cam *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(cam.Fov*libutil.Deg2Rad, aspect, cam.Near, cam.Far)
}
