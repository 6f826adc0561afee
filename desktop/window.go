package desktop

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spheres3d/spheres"
)

// eventQueue carries input from the glfw callbacks on the render thread to
// the logic thread.
type eventQueue struct {
	mu     sync.Mutex
	events []spheres.UserInput
}

func (q *eventQueue) push(in spheres.Input) {
	q.mu.Lock()
	q.events = append(q.events, spheres.UserInput{User: spheres.DefaultUser, Input: in})
	q.mu.Unlock()
}

func (q *eventQueue) drain() []spheres.UserInput {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// window wraps the glfw window. It must only be used from the render thread,
// which has to be the main thread on macOS (see spheres.GameLoop.Run).
type window struct {
	win    *glfw.Window
	width  int
	height int

	onResize func(width, height int)
	events   *eventQueue
}

func openWindow(width, height int, title string, events *eventQueue) (*window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}
	// the surface is created by wgpu, not by glfw
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	w := &window{win: win, events: events}
	w.width, w.height = win.GetFramebufferSize()

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if in, ok := keyInput(key, action); ok {
			w.events.push(in)
		}
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if in, ok := mouseButtonInput(button, action); ok {
			w.events.push(in)
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.events.push(spheres.Input{Kind: spheres.InputPointer, Position: mgl32.Vec2{float32(x), float32(y)}})
	})
	win.SetCloseCallback(func(_ *glfw.Window) {
		w.events.push(spheres.Input{Kind: spheres.InputQuit})
	})
	return w, nil
}

func (w *window) pollEvents() { glfw.PollEvents() }

func (w *window) shouldClose() bool { return w.win.ShouldClose() }

func (w *window) close() {
	w.win.Destroy()
	glfw.Terminate()
}
