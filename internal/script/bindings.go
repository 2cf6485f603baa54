package script

import (
	"github.com/Shopify/go-lua"

	"github.com/ivlev/explainer/internal/easing"
	"github.com/ivlev/explainer/internal/scene"
)

func registerTypes(state *lua.State) {
	registerType(state, sceneTypeName, sceneMethods)
	registerType(state, objectTypeName, objectMethods)
	registerType(state, actionTypeName, nil)

	state.NewTable()
	lua.SetFunctions(state, sceneConstructor, 0)
	state.SetGlobal("Scene")

	state.NewTable()
	lua.SetFunctions(state, actionConstructors, 0)
	state.SetGlobal("Action")
}

func registerType(state *lua.State, name string, methods []lua.RegistryFunction) {
	lua.NewMetaTable(state, name)
	state.NewTable()
	if len(methods) > 0 {
		lua.SetFunctions(state, methods, 0)
	}
	state.SetField(-2, "__index")
	state.Pop(1)
}

var sceneConstructor = []lua.RegistryFunction{
	{Name: "new", Function: sceneNew},
}

func sceneNew(state *lua.State) int {
	state.PushUserData(&Scene{Name: lua.OptString(state, 1, "")})
	lua.SetMetaTableNamed(state, sceneTypeName)
	return 1
}

var sceneMethods = []lua.RegistryFunction{
	// objects
	{Name: "text", Function: sceneText},
	{Name: "rect", Function: sceneRect},
	{Name: "square", Function: sceneSquare},
	{Name: "circle", Function: sceneCircle},
	{Name: "arrow", Function: sceneArrow},
	{Name: "line", Function: sceneLine},
	{Name: "dot", Function: sceneDot},
	{Name: "qr", Function: sceneQR},
	{Name: "group", Function: sceneGroup},

	// single action steps
	{Name: "create", Function: single(actionCreate)},
	{Name: "write", Function: single(actionWrite)},
	{Name: "fade_in", Function: single(actionFadeIn)},
	{Name: "fade_out", Function: single(actionFadeOut)},
	{Name: "remove", Function: single(actionRemove)},
	{Name: "move", Function: single(actionMove)},
	{Name: "shift", Function: single(actionShift)},
	{Name: "recolor", Function: single(actionRecolor)},
	{Name: "rotate", Function: single(actionRotate)},
	{Name: "scale", Function: single(actionScale)},
	{Name: "transform", Function: single(actionTransform)},

	{Name: "play", Function: scenePlay},
	{Name: "wait", Function: sceneWait},
}

func checkScene(state *lua.State) *Scene {
	ud := lua.CheckUserData(state, 1, sceneTypeName)
	if sc, ok := ud.(*Scene); ok && sc != nil {
		return sc
	}
	lua.ArgumentError(state, 1, "scene expected")
	return nil
}

func checkObject(state *lua.State, index int) *scene.Object {
	ud := lua.CheckUserData(state, index, objectTypeName)
	if o, ok := ud.(*object); ok && o != nil && o.obj != nil {
		return o.obj
	}
	lua.ArgumentError(state, index, "object expected")
	return nil
}

func pushObject(state *lua.State, o *scene.Object, opts map[string]any) int {
	applyObjectOptions(state, o, opts)
	state.PushUserData(&object{obj: o})
	lua.SetMetaTableNamed(state, objectTypeName)
	return 1
}

// Object constructors take the scene, a name, their geometry and an
// optional table of x, y, fill, stroke, stroke_width, opacity and scale.

func sceneText(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	content := lua.CheckString(state, 3)
	opts := optionalTable(state, 4)
	color := colorOption(state, opts, "color", scene.White)
	return pushObject(state, scene.NewText(name, content, numberOption(opts, "size", 0.4), color), opts)
}

func sceneRect(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	w, h := lua.CheckNumber(state, 3), lua.CheckNumber(state, 4)
	return pushObject(state, scene.NewRect(name, w, h, scene.DefaultStyle()), optionalTable(state, 5))
}

func sceneSquare(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	return pushObject(state, scene.NewSquare(name, lua.CheckNumber(state, 3), scene.DefaultStyle()), optionalTable(state, 4))
}

func sceneCircle(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	return pushObject(state, scene.NewCircle(name, lua.CheckNumber(state, 3), scene.DefaultStyle()), optionalTable(state, 4))
}

func sceneArrow(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	v := scene.Point{X: lua.CheckNumber(state, 3), Y: lua.CheckNumber(state, 4)}
	opts := optionalTable(state, 5)
	return pushObject(state, scene.NewArrow(name, v, colorOption(state, opts, "color", scene.Yellow)), opts)
}

func sceneLine(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	v := scene.Point{X: lua.CheckNumber(state, 3), Y: lua.CheckNumber(state, 4)}
	opts := optionalTable(state, 5)
	return pushObject(state, scene.NewLine(name, v, colorOption(state, opts, "color", scene.White)), opts)
}

func sceneDot(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	opts := optionalTable(state, 3)
	return pushObject(state, scene.NewDot(name, colorOption(state, opts, "color", scene.White)), opts)
}

func sceneQR(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	payload := lua.CheckString(state, 3)
	side := lua.OptNumber(state, 4, 2)
	if _, err := scene.QRModules(payload); err != nil {
		lua.ArgumentError(state, 3, err.Error())
		return 0
	}
	return pushObject(state, scene.NewQRCode(name, payload, side), optionalTable(state, 5))
}

func sceneGroup(state *lua.State) int {
	checkScene(state)
	name := lua.CheckString(state, 2)
	lua.CheckType(state, 3, lua.TypeTable)
	g := scene.NewGroup(name)
	for i, v := range arrayValues(state, 3) {
		o, ok := v.(*object)
		if !ok || o == nil {
			lua.Errorf(state, "group %s: child %d is not an object", name, i+1)
			return 0
		}
		if o.obj.Parent != nil {
			lua.Errorf(state, "group %s: %s already belongs to %s", name, o.obj.Name, o.obj.Parent.Name)
			return 0
		}
		if o.obj == g {
			lua.Errorf(state, "group %s cannot contain itself", name)
			return 0
		}
		g.Add(o.obj)
	}
	return pushObject(state, g, optionalTable(state, 4))
}

var objectMethods = []lua.RegistryFunction{
	{Name: "name", Function: objectName},
	{Name: "x", Function: objectX},
	{Name: "y", Function: objectY},
}

func objectName(state *lua.State) int {
	state.PushString(checkObject(state, 1).Name)
	return 1
}

func objectX(state *lua.State) int {
	state.PushNumber(checkObject(state, 1).Position.X)
	return 1
}

func objectY(state *lua.State) int {
	state.PushNumber(checkObject(state, 1).Position.Y)
	return 1
}

// builder reads one action from the stack starting at index and returns the
// stack index of the first argument it did not consume.
type builder func(state *lua.State, index int) (scene.Action, int)

func actionCreate(state *lua.State, i int) (scene.Action, int) {
	return scene.Create(checkObject(state, i)), i + 1
}

func actionWrite(state *lua.State, i int) (scene.Action, int) {
	return scene.Write(checkObject(state, i)), i + 1
}

func actionFadeIn(state *lua.State, i int) (scene.Action, int) {
	return scene.FadeIn(checkObject(state, i)), i + 1
}

func actionFadeOut(state *lua.State, i int) (scene.Action, int) {
	return scene.FadeOut(checkObject(state, i)), i + 1
}

func actionRemove(state *lua.State, i int) (scene.Action, int) {
	return scene.Remove(checkObject(state, i)), i + 1
}

func actionMove(state *lua.State, i int) (scene.Action, int) {
	o := checkObject(state, i)
	return scene.MoveTo(o, scene.Point{X: lua.CheckNumber(state, i+1), Y: lua.CheckNumber(state, i+2)}), i + 3
}

func actionShift(state *lua.State, i int) (scene.Action, int) {
	o := checkObject(state, i)
	return scene.Shift(o, scene.Point{X: lua.CheckNumber(state, i+1), Y: lua.CheckNumber(state, i+2)}), i + 3
}

func actionRecolor(state *lua.State, i int) (scene.Action, int) {
	o := checkObject(state, i)
	c, err := scene.ParseColor(lua.CheckString(state, i+1))
	if err != nil {
		lua.ArgumentError(state, i+1, err.Error())
	}
	return scene.Recolor(o, c), i + 2
}

func actionRotate(state *lua.State, i int) (scene.Action, int) {
	o := checkObject(state, i)
	return scene.Rotate(o, lua.CheckNumber(state, i+1)), i + 2
}

func actionScale(state *lua.State, i int) (scene.Action, int) {
	o := checkObject(state, i)
	return scene.ScaleBy(o, lua.CheckNumber(state, i+1)), i + 2
}

func actionTransform(state *lua.State, i int) (scene.Action, int) {
	return scene.Transform(checkObject(state, i), checkObject(state, i+1)), i + 2
}

// single turns a builder into a scene method that appends a one action step.
// Step options follow the action arguments.
func single(build builder) lua.Function {
	return func(state *lua.State) int {
		sc := checkScene(state)
		act, next := build(state, 2)
		appendStep(state, sc, scene.Play(act), optionalTable(state, next))
		return 0
	}
}

// Action.<kind>(...) returns an action for use with Scene:play.
var actionConstructors = []lua.RegistryFunction{
	{Name: "create", Function: standalone(actionCreate)},
	{Name: "write", Function: standalone(actionWrite)},
	{Name: "fade_in", Function: standalone(actionFadeIn)},
	{Name: "fade_out", Function: standalone(actionFadeOut)},
	{Name: "remove", Function: standalone(actionRemove)},
	{Name: "move", Function: standalone(actionMove)},
	{Name: "shift", Function: standalone(actionShift)},
	{Name: "recolor", Function: standalone(actionRecolor)},
	{Name: "rotate", Function: standalone(actionRotate)},
	{Name: "scale", Function: standalone(actionScale)},
	{Name: "transform", Function: standalone(actionTransform)},
}

func standalone(build builder) lua.Function {
	return func(state *lua.State) int {
		act, _ := build(state, 1)
		state.PushUserData(&action{act: act})
		lua.SetMetaTableNamed(state, actionTypeName)
		return 1
	}
}

func scenePlay(state *lua.State) int {
	sc := checkScene(state)
	lua.CheckType(state, 2, lua.TypeTable)
	values := arrayValues(state, 2)
	if len(values) == 0 {
		lua.ArgumentError(state, 2, "play needs at least one action")
		return 0
	}
	actions := make([]scene.Action, 0, len(values))
	for i, v := range values {
		a, ok := v.(*action)
		if !ok || a == nil {
			lua.Errorf(state, "play: entry %d is not an action", i+1)
			return 0
		}
		actions = append(actions, a.act)
	}
	appendStep(state, sc, scene.Play(actions...), optionalTable(state, 3))
	return 0
}

func sceneWait(state *lua.State) int {
	sc := checkScene(state)
	seconds := lua.OptNumber(state, 2, scene.DefaultDuration)
	if seconds < 0 {
		lua.ArgumentError(state, 2, "wait needs a non-negative duration")
		return 0
	}
	sc.Steps = append(sc.Steps, scene.Wait(seconds))
	return 0
}

func appendStep(state *lua.State, sc *Scene, st scene.Step, opts map[string]any) {
	if d, ok := opts["duration"]; ok {
		seconds, isNum := toNumber(d)
		if !isNum || seconds < 0 {
			lua.Errorf(state, "step %d: duration must be a non-negative number", len(sc.Steps)+1)
			return
		}
		st = st.For(seconds)
	}
	if e, ok := opts["easing"].(string); ok {
		if _, err := easing.Lookup(e); err != nil {
			lua.Errorf(state, "step %d: %s", len(sc.Steps)+1, err.Error())
			return
		}
		st = st.Eased(e)
	}
	if l, ok := opts["label"].(string); ok {
		st = st.Named(l)
	}
	sc.Steps = append(sc.Steps, st)
}

func applyObjectOptions(state *lua.State, o *scene.Object, opts map[string]any) {
	o.Position = scene.Point{X: numberOption(opts, "x", o.Position.X), Y: numberOption(opts, "y", o.Position.Y)}
	if o.Kind == scene.KindShape {
		o.Style.Fill = colorOption(state, opts, "fill", o.Style.Fill)
		o.Style.Stroke = colorOption(state, opts, "stroke", o.Style.Stroke)
	}
	o.Style.StrokeWidth = numberOption(opts, "stroke_width", o.Style.StrokeWidth)
	o.Style.Opacity = numberOption(opts, "opacity", o.Style.Opacity)
	o.Scale = numberOption(opts, "scale", o.Scale)
}

func numberOption(opts map[string]any, key string, fallback float64) float64 {
	if v, ok := toNumber(opts[key]); ok {
		return v
	}
	return fallback
}

func colorOption(state *lua.State, opts map[string]any, key string, fallback scene.Color) scene.Color {
	raw, ok := opts[key].(string)
	if !ok {
		return fallback
	}
	c, err := scene.ParseColor(raw)
	if err != nil {
		lua.Errorf(state, "option %s: %s", key, err.Error())
		return fallback
	}
	return c
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func arrayValues(state *lua.State, index int) []any {
	index = state.AbsIndex(index)
	n := state.RawLength(index)
	values := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		state.RawGetInt(index, i)
		values = append(values, luaToGo(state, -1))
		state.Pop(1)
	}
	return values
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return value
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}
