package desktop

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spheres3d/spheres"
)

var glfwToKey = map[glfw.Key]spheres.Key{
	glfw.KeyA:            spheres.KeyA,
	glfw.KeyB:            spheres.KeyB,
	glfw.KeyC:            spheres.KeyC,
	glfw.KeyD:            spheres.KeyD,
	glfw.KeyE:            spheres.KeyE,
	glfw.KeyF:            spheres.KeyF,
	glfw.KeyG:            spheres.KeyG,
	glfw.KeyH:            spheres.KeyH,
	glfw.KeyI:            spheres.KeyI,
	glfw.KeyJ:            spheres.KeyJ,
	glfw.KeyK:            spheres.KeyK,
	glfw.KeyL:            spheres.KeyL,
	glfw.KeyM:            spheres.KeyM,
	glfw.KeyN:            spheres.KeyN,
	glfw.KeyO:            spheres.KeyO,
	glfw.KeyP:            spheres.KeyP,
	glfw.KeyQ:            spheres.KeyQ,
	glfw.KeyR:            spheres.KeyR,
	glfw.KeyS:            spheres.KeyS,
	glfw.KeyT:            spheres.KeyT,
	glfw.KeyU:            spheres.KeyU,
	glfw.KeyV:            spheres.KeyV,
	glfw.KeyW:            spheres.KeyW,
	glfw.KeyX:            spheres.KeyX,
	glfw.KeyY:            spheres.KeyY,
	glfw.KeyZ:            spheres.KeyZ,
	glfw.Key0:            spheres.Key0,
	glfw.Key1:            spheres.Key1,
	glfw.Key2:            spheres.Key2,
	glfw.Key3:            spheres.Key3,
	glfw.Key4:            spheres.Key4,
	glfw.Key5:            spheres.Key5,
	glfw.Key6:            spheres.Key6,
	glfw.Key7:            spheres.Key7,
	glfw.Key8:            spheres.Key8,
	glfw.Key9:            spheres.Key9,
	glfw.KeySpace:        spheres.KeySpace,
	glfw.KeyEnter:        spheres.KeyEnter,
	glfw.KeyEscape:       spheres.KeyEscape,
	glfw.KeyTab:          spheres.KeyTab,
	glfw.KeyBackspace:    spheres.KeyBackspace,
	glfw.KeyInsert:       spheres.KeyInsert,
	glfw.KeyDelete:       spheres.KeyDelete,
	glfw.KeyRight:        spheres.KeyRight,
	glfw.KeyLeft:         spheres.KeyLeft,
	glfw.KeyDown:         spheres.KeyDown,
	glfw.KeyUp:           spheres.KeyUp,
	glfw.KeyF1:           spheres.KeyF1,
	glfw.KeyF2:           spheres.KeyF2,
	glfw.KeyF3:           spheres.KeyF3,
	glfw.KeyF4:           spheres.KeyF4,
	glfw.KeyF5:           spheres.KeyF5,
	glfw.KeyF6:           spheres.KeyF6,
	glfw.KeyF7:           spheres.KeyF7,
	glfw.KeyF8:           spheres.KeyF8,
	glfw.KeyF9:           spheres.KeyF9,
	glfw.KeyF10:          spheres.KeyF10,
	glfw.KeyF11:          spheres.KeyF11,
	glfw.KeyF12:          spheres.KeyF12,
	glfw.KeyMinus:        spheres.KeyMinus,
	glfw.KeyEqual:        spheres.KeyEqual,
	glfw.KeyKPAdd:        spheres.KeyKPPlus,
	glfw.KeyKPSubtract:   spheres.KeyKPMinus,
	glfw.KeyLeftShift:    spheres.KeyShift,
	glfw.KeyRightShift:   spheres.KeyShift,
	glfw.KeyLeftControl:  spheres.KeyControl,
	glfw.KeyRightControl: spheres.KeyControl,
	glfw.KeyLeftAlt:      spheres.KeyLeftAlt,
}

var glfwToMouseButton = map[glfw.MouseButton]spheres.Key{
	glfw.MouseButtonLeft:   spheres.MouseButtonLeft,
	glfw.MouseButtonRight:  spheres.MouseButtonRight,
	glfw.MouseButtonMiddle: spheres.MouseButtonMiddle,
}

// keyInput translates a glfw key event. Repeats and unknown keys are dropped.
func keyInput(key glfw.Key, action glfw.Action) (spheres.Input, bool) {
	k, ok := glfwToKey[key]
	if !ok || action == glfw.Repeat {
		return spheres.Input{}, false
	}
	return spheres.Input{Kind: spheres.InputKey, Key: k, Pressed: action == glfw.Press}, true
}

func mouseButtonInput(button glfw.MouseButton, action glfw.Action) (spheres.Input, bool) {
	k, ok := glfwToMouseButton[button]
	if !ok || action == glfw.Repeat {
		return spheres.Input{}, false
	}
	return spheres.Input{Kind: spheres.InputKey, Key: k, Pressed: action == glfw.Press}, true
}
