package spheres

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
)

const (
	DefaultFieldOfView = 50.0
	DefaultNearPlane   = 0.1
	DefaultFarPlane    = 100.0
)

var worldUp = mgl32.Vec3{0, 1, 0}

func cameraMatrix(c CameraData) mgl32.Mat4 {
	if c.Position == c.LookAt {
		// LookAtV is undefined for a zero view direction
		return mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z())
	}
	return mgl32.LookAtV(c.Position, c.LookAt, worldUp)
}

// CameraTarget renders the whole display from the snapshot camera.
type CameraTarget struct {
	FieldOfView float32 // degrees
	Aspect      float32
	Near, Far   float32

	// When set, the frame rendered as number ScreenshotFrame (1 based) is
	// written as BMP to ScreenshotPath. Needs a backend that is a
	// PixelReader.
	ScreenshotPath  string
	ScreenshotFrame int

	reader PixelReader
	logger Logger
	frames int
}

// NewCameraTarget creates a camera target for a display of the given size.
// backend is only used to read back screenshots and may be nil.
func NewCameraTarget(width, height int, backend Backend, logger Logger) *CameraTarget {
	aspect := float32(4.0 / 3.0)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	t := &CameraTarget{
		FieldOfView:     DefaultFieldOfView,
		Aspect:          aspect,
		Near:            DefaultNearPlane,
		Far:             DefaultFarPlane,
		ScreenshotFrame: 2,
		logger:          orNop(logger),
	}
	if r, ok := backend.(PixelReader); ok {
		t.reader = r
	}
	return t
}

func (t *CameraTarget) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(t.FieldOfView), t.Aspect, t.Near, t.Far)
}

func (t *CameraTarget) BeforeRenderToTarget(snapshot *SceneSnapshot, details []BackendDetail) TargetData {
	return TargetData{
		Camera:     cameraMatrix(snapshot.Camera),
		Projection: t.Projection(),
		Viewport:   FullViewport(),
	}
}

func (t *CameraTarget) AfterRenderToTarget(snapshot *SceneSnapshot) {
	t.frames++
	if t.ScreenshotPath == "" || t.frames != t.ScreenshotFrame {
		return
	}
	if err := t.writeScreenshot(); err != nil {
		t.logger.Errorf("screenshot: %v", err)
		return
	}
	t.logger.Infof("screenshot written to %s", t.ScreenshotPath)
}

func (t *CameraTarget) writeScreenshot() error {
	if t.reader == nil {
		return fmt.Errorf("backend cannot read back pixels")
	}
	img, err := t.reader.ReadPixels()
	if err != nil {
		return fmt.Errorf("read pixels: %w", err)
	}
	f, err := os.Create(t.ScreenshotPath)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode bmp: %w", err)
	}
	return f.Close()
}

// EyeTarget renders one eye of a stereo display. The backend must report
// StereoDetails from BeforeRender.
type EyeTarget struct {
	Eye    Eye
	logger Logger
}

func NewEyeTarget(eye Eye, logger Logger) *EyeTarget {
	return &EyeTarget{Eye: eye, logger: orNop(logger)}
}

func (t *EyeTarget) BeforeRenderToTarget(snapshot *SceneSnapshot, details []BackendDetail) TargetData {
	d, ok := findDetail(details, BackendDetailStereo)
	if !ok {
		fatalf(t.logger, "%s eye target needs %s backend details", t.Eye, BackendDetailStereo)
	}
	var stereo StereoDetails
	switch s := d.(type) {
	case StereoDetails:
		stereo = s
	case *StereoDetails:
		stereo = *s
	default:
		fatalf(t.logger, "unexpected %s detail type %T", BackendDetailStereo, d)
	}
	eye := stereo.Eyes[t.Eye]
	return TargetData{
		Camera:     eye.View.Mul4(cameraMatrix(snapshot.Camera)),
		Projection: eye.Projection,
		Viewport:   eye.Viewport,
	}
}

func (t *EyeTarget) AfterRenderToTarget(snapshot *SceneSnapshot) {}
