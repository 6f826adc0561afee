package spheres

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type Key int

const (
	KeyUnknown Key = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyInsert
	KeyDelete
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyMinus
	KeyEqual
	KeyKPPlus
	KeyKPMinus
	KeyShift
	KeyControl
	KeyLeftAlt
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

type InputKind int

const (
	InputKey InputKind = iota
	InputPointer
	InputQuit
)

func (k InputKind) String() string {
	switch k {
	case InputKey:
		return "key"
	case InputPointer:
		return "pointer"
	case InputQuit:
		return "quit"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Input is one raw event from an input source. Which fields are set depends
// on Kind: Key and Pressed for InputKey, Position for InputPointer.
type Input struct {
	Kind     InputKind
	Key      Key
	Pressed  bool
	Position mgl32.Vec2
}

type UserId int

const DefaultUser UserId = 0

type UserInput struct {
	User  UserId
	Input Input
}

type InputActionKind int

const (
	ActionPressed InputActionKind = iota
	ActionReleased
	ActionPointer
	ActionQuit
)

func (k InputActionKind) String() string {
	switch k {
	case ActionPressed:
		return "pressed"
	case ActionReleased:
		return "released"
	case ActionPointer:
		return "pointer"
	case ActionQuit:
		return "quit"
	default:
		return fmt.Sprintf("InputActionKind(%d)", int(k))
	}
}

// InputAction is the game level meaning of an input, e.g. "jump" pressed.
type InputAction struct {
	Kind     InputActionKind
	Name     string
	Position mgl32.Vec2
	Users    []UserId

	handled bool
}

func (a *InputAction) AddUser(id UserId) { a.Users = append(a.Users, id) }

// SetHandled marks the action as consumed by some aspect.
func (a *InputAction) SetHandled() { a.handled = true }

func (a *InputAction) Handled() bool { return a.handled }

type InputSource interface {
	// ReadInput returns everything that happened since the last call.
	ReadInput() []UserInput
	Enable()
	Disable()
	Enabled() bool
}

// InputTransformer maps a raw input to an action, or nil if it has no
// meaning for the transformer.
type InputTransformer interface {
	Transform(in Input) *InputAction
}

// KeyMapTransformer names key presses and releases through a binding table.
// Pointer moves become "pointer" actions and quit requests "quit" actions.
type KeyMapTransformer struct {
	Bindings map[Key]string
}

func (t KeyMapTransformer) Transform(in Input) *InputAction {
	switch in.Kind {
	case InputKey:
		name, ok := t.Bindings[in.Key]
		if !ok {
			return nil
		}
		kind := ActionReleased
		if in.Pressed {
			kind = ActionPressed
		}
		return &InputAction{Kind: kind, Name: name}
	case InputPointer:
		return &InputAction{Kind: ActionPointer, Name: "pointer", Position: in.Position}
	case InputQuit:
		return &InputAction{Kind: ActionQuit, Name: "quit"}
	}
	return nil
}

// QueueSource is an input source other threads can push into, e.g. window
// callbacks running on the render thread.
type QueueSource struct {
	mu      sync.Mutex
	queue   []UserInput
	enabled bool
}

func NewQueueSource() *QueueSource { return &QueueSource{} }

func (q *QueueSource) Push(user UserId, in Input) {
	q.mu.Lock()
	q.queue = append(q.queue, UserInput{User: user, Input: in})
	q.mu.Unlock()
}

func (q *QueueSource) ReadInput() []UserInput {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queue
	q.queue = nil
	if !q.enabled {
		return nil
	}
	return out
}

func (q *QueueSource) Enable() {
	q.mu.Lock()
	q.enabled = true
	q.mu.Unlock()
}

func (q *QueueSource) Disable() {
	q.mu.Lock()
	q.enabled = false
	q.mu.Unlock()
}

func (q *QueueSource) Enabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled
}

// InputEngine turns the raw input of all sources into actions once per
// logic tick. It also keeps track of which keys are held down.
type InputEngine struct {
	// OnNewInputAction fires for every action as it is created.
	OnNewInputAction Signal[*InputAction]

	sources      []InputSource
	transformers []InputTransformer
	actions      []*InputAction

	pressed      [keyCount]bool
	justPressed  [keyCount]bool
	justReleased [keyCount]bool
	pointer      mgl32.Vec2
}

func NewInputEngine() *InputEngine { return &InputEngine{} }

func (ie *InputEngine) AddSource(s InputSource) { ie.sources = append(ie.sources, s) }

func (ie *InputEngine) AddTransformer(t InputTransformer) {
	ie.transformers = append(ie.transformers, t)
}

// Process reads all sources, enabling them on first use, and runs every
// input through every transformer.
func (ie *InputEngine) Process() {
	ie.justPressed = [keyCount]bool{}
	ie.justReleased = [keyCount]bool{}

	var all []UserInput
	for _, s := range ie.sources {
		if !s.Enabled() {
			s.Enable()
		}
		all = append(all, s.ReadInput()...)
	}

	for _, ui := range all {
		ie.track(ui.Input)
		for _, t := range ie.transformers {
			action := t.Transform(ui.Input)
			if action == nil {
				continue
			}
			action.AddUser(ui.User)
			ie.OnNewInputAction.Emit(action)
			ie.actions = append(ie.actions, action)
		}
	}
}

func (ie *InputEngine) track(in Input) {
	switch in.Kind {
	case InputKey:
		if in.Key <= KeyUnknown || in.Key >= keyCount {
			return
		}
		if in.Pressed && !ie.pressed[in.Key] {
			ie.justPressed[in.Key] = true
		}
		if !in.Pressed && ie.pressed[in.Key] {
			ie.justReleased[in.Key] = true
		}
		ie.pressed[in.Key] = in.Pressed
	case InputPointer:
		ie.pointer = in.Position
	}
}

func (ie *InputEngine) Pressed(k Key) bool { return k > KeyUnknown && k < keyCount && ie.pressed[k] }

func (ie *InputEngine) JustPressed(k Key) bool {
	return k > KeyUnknown && k < keyCount && ie.justPressed[k]
}

func (ie *InputEngine) JustReleased(k Key) bool {
	return k > KeyUnknown && k < keyCount && ie.justReleased[k]
}

func (ie *InputEngine) Pointer() mgl32.Vec2 { return ie.pointer }

// Actions returns the actions created since the last ClearInputActions.
func (ie *InputEngine) Actions() []*InputAction { return ie.actions }

// ClearInputActions drops the actions of this tick. Actions nobody handled
// are gone as well; input is not carried over to the next tick.
func (ie *InputEngine) ClearInputActions() {
	ie.actions = nil
}
