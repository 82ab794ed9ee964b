package viz

import "github.com/charmbracelet/harmonica"

// CameraRig eases a Camera toward target angles and zoom instead of
// jumping on every key press.
type CameraRig struct {
	spring harmonica.Spring
	target Camera
	vel    [4]float64
}

func NewCameraRig(cam *Camera, fps int) *CameraRig {
	return &CameraRig{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 0.9),
		target: *cam,
	}
}

func (r *CameraRig) Target() *Camera { return &r.target }

// Step moves cam one frame closer to the target.
func (r *CameraRig) Step(cam *Camera) {
	cam.RotX, r.vel[0] = r.spring.Update(cam.RotX, r.vel[0], r.target.RotX)
	cam.RotY, r.vel[1] = r.spring.Update(cam.RotY, r.vel[1], r.target.RotY)
	cam.RotZ, r.vel[2] = r.spring.Update(cam.RotZ, r.vel[2], r.target.RotZ)
	cam.Zoom, r.vel[3] = r.spring.Update(cam.Zoom, r.vel[3], r.target.Zoom)
}

// Snap jumps cam to the target and stops any motion.
func (r *CameraRig) Snap(cam *Camera) {
	cam.RotX, cam.RotY, cam.RotZ, cam.Zoom = r.target.RotX, r.target.RotY, r.target.RotZ, r.target.Zoom
	r.vel = [4]float64{}
}
