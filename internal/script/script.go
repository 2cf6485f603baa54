// Package script loads custom scenes written in Lua.
//
// A script builds objects and steps through a Scene value and must return it:
//
//	local s = Scene.new("intro")
//	local hello = s:text("hello", "Hello", { size = 0.5, color = "yellow" })
//	s:write(hello, { duration = 1.5 })
//	s:play({ Action.shift(hello, 0, 2), Action.recolor(hello, "teal") })
//	s:wait(1)
//	s:fade_out(hello)
//	return s
package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/ivlev/explainer/internal/scene"
)

var ErrNoScene = errors.New("script must return a Scene")

const (
	sceneTypeName  = "scene"
	objectTypeName = "object"
	actionTypeName = "action"
)

// Scene is the result of running a script.
type Scene struct {
	Name  string
	Steps []scene.Step
}

type object struct {
	obj *scene.Object
}

type action struct {
	act scene.Action
}

// LoadFile runs the script at path. The scene name defaults to the file name.
func LoadFile(path string) (*Scene, error) {
	state := newState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", path, err)
	}
	sc, err := run(state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadString runs source as a chunk called name.
func LoadString(name, source string) (*Scene, error) {
	state := newState()
	if err := lua.LoadBuffer(state, source, name, "t"); err != nil {
		return nil, fmt.Errorf("load lua %s: %w", name, err)
	}
	sc, err := run(state)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = name
	}
	return sc, nil
}

func newState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerTypes(state)
	return state
}

func run(state *lua.State) (*Scene, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, ErrNoScene
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	sc, ok := ud.(*Scene)
	if !ok || sc == nil {
		return nil, fmt.Errorf("%w, got %T", ErrNoScene, ud)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scene %q has no steps", sc.Name)
	}
	return sc, nil
}
