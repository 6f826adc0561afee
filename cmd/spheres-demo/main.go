package main

import (
	"flag"
	"math/rand/v2"
	"os"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"github.com/spheres3d/spheres"
	"github.com/spheres3d/spheres/desktop"
)

// glfw and the wgpu surface live on the main thread, where loop.Run renders.
func init() { runtime.LockOSThread() }

const (
	actionQuit     = "quit"
	actionFountain = "fountain"
)

func main() {
	configPath := flag.String("config", "", "path of a yaml config file")
	frames := flag.Int("frames", 0, "exit after this many iterations of each thread")
	flag.Parse()

	cfg := spheres.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = spheres.LoadConfig(*configPath)
		if err != nil {
			spheres.NewDefaultLogger("spheres", true).Errorf("%v", err)
			os.Exit(1)
		}
	}
	if *frames > 0 {
		cfg.Loop.ExitAfterIterations = *frames
	}
	logger := spheres.NewDefaultLogger("spheres", cfg.Debug)

	files := spheres.NewFileLoader(cfg.Resources.Root, logger)
	if cfg.Resources.Watch {
		if err := files.Watch(); err != nil {
			logger.Warnf("shader hot reload disabled: %v", err)
		}
	}
	loader := desktop.WithBuiltinShaders(files)
	backend := desktop.New(desktop.OptionsFromConfig(cfg), loader, logger)

	engines := spheres.NewEngines(backend, loader, logger)
	engines.Input.AddTransformer(spheres.KeyMapTransformer{Bindings: map[spheres.Key]string{
		spheres.KeyEscape: actionQuit,
		spheres.KeyF:      actionFountain,
	}})

	loop := spheres.NewGameLoop(engines, cfg.Loop, logger)
	loop.SetEventPump(backend)
	closer.Bind(func() {
		loop.Terminate()
		if err := files.Close(); err != nil {
			logger.Warnf("close file watcher: %v", err)
		}
	})
	defer closer.Close()

	if cfg.Display.Stereo {
		engines.Render.AddTarget(spheres.NewEyeTarget(spheres.EyeLeft, logger))
		engines.Render.AddTarget(spheres.NewEyeTarget(spheres.EyeRight, logger))
	} else {
		target := spheres.NewCameraTarget(cfg.Display.Width, cfg.Display.Height, backend, logger)
		target.ScreenshotPath = cfg.Screenshot
		engines.Render.AddTarget(target)
	}

	buildScene(loop, engines)

	if err := loop.Run(); err != nil {
		logger.Errorf("game loop: %v", err)
	}
}

func buildScene(loop *spheres.GameLoop, engines *spheres.Engines) {
	rng := rand.New(rand.NewPCG(1, 2))

	camera := spheres.NewCameraEntity("camera", mgl32.Vec3{0, 6, 14}, mgl32.Vec3{})
	camera.AddAspect(engines, &spheres.ActionAspect{Name: actionQuit, Fn: func(*spheres.InputAction) {
		loop.Terminate()
	}})
	engines.Entity.AddEntity(camera, nil)

	box := spheres.NewEntity("box")
	box.SetPosition(mgl32.Vec3{0, 2, 0})
	box.RequestVisual(engines.Render, spheres.NewMeshVisual(spheres.DebugBoxMesh, ""))
	box.AddAspect(engines, &spheres.SpinAspect{Axis: mgl32.Vec3{0.3, 1, 0}, Speed: 0.8})
	engines.Entity.AddEntity(box, nil)

	galaxy := spheres.NewEntity("milky way")
	milkyWay := spheres.NewParticleSystemVisual(spheres.NopModel())
	spheres.CreateMilkyWay(milkyWay, rng, 20000)
	galaxy.RequestVisual(engines.Render, milkyWay)
	galaxy.AddAspect(engines, &spheres.SpinAspect{Speed: 0.05})
	engines.Entity.AddEntity(galaxy, nil)

	fountain := spheres.NewEntity("fountain")
	fountain.SetPosition(mgl32.Vec3{0, 2.5, 0})
	emitter := &spheres.Emitter{
		MaxParticles:     2000,
		SpawnRate:        400,
		LifetimeRange:    [2]float32{1.5, 2.5},
		StartSpeedRange:  [2]float32{4, 7},
		StartSizeRange:   [2]float32{0.04, 0.08},
		StartColorMin:    spheres.ParticleColor{R: 80, G: 140, B: 255, A: 255},
		StartColorMax:    spheres.ParticleColor{R: 200, G: 230, B: 255, A: 255},
		Gravity:          9.81,
		Drag:             0.2,
		ConeAngleDegrees: 15,
	}
	fountainVisual := spheres.NewParticleSystemVisual(emitter.Model(rng))
	fountainVisual.Capacity = emitter.MaxParticles
	fountain.RequestVisual(engines.Render, fountainVisual)
	fountain.AddAspect(engines, &spheres.ParticleAspect{})
	fountain.AddAspect(engines, &spheres.ActionAspect{Name: actionFountain, Fn: func(a *spheres.InputAction) {
		if a.Kind != spheres.ActionPressed {
			return
		}
		if emitter.SpawnRate > 0 {
			emitter.SpawnRate = 0
		} else {
			emitter.SpawnRate = 400
		}
	}})
	engines.Entity.AddEntity(fountain, nil)
}
