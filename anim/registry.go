package anim

import (
	"fmt"
	"strconv"
	"sync"
)

// Effect modes.
const (
	ModeShow = "show"
	ModeHide = "hide"
)

// EffectDef maps a kebab-case property either to a mode ("show"/"hide") or
// to an explicit []string of frame values.
type EffectDef map[string]any

// PropContext is what a property handler may read and write while building
// frames for one property: live computed style and the per-element
// animate-data bag.
type PropContext interface {
	// Computed reads the computed value of a kebab-case property.
	Computed(prop string) string
	// ComputedPx reads a computed value as a pixel float, NaN coerced to 0.
	ComputedPx(prop string) float64
	// CacheGet reads from the animate-data bag.
	CacheGet(key string) (string, bool)
	// CacheSet writes to the animate-data bag.
	CacheSet(key, value string)
	// Displayed reports whether the element currently has a rendered box.
	Displayed() bool
	// Format renders a numeric value for the property (px unless unitless).
	Format(prop string, v float64) string
}

// PropertyHandler builds the frame values for one property under one mode.
type PropertyHandler func(ctx PropContext, prop string) ([]string, error)

// ReentryDetector inspects the generated frames (property -> frame values)
// and reports whether running the effect would be a visible no-op.
type ReentryDetector func(frames map[string][]string) bool

type registries struct {
	mu        sync.RWMutex
	effects   map[string]EffectDef
	inverse   map[string]string
	detectors map[string]ReentryDetector
	handlers  map[string]PropertyHandler
}

var reg = &registries{
	effects:   make(map[string]EffectDef),
	inverse:   make(map[string]string),
	detectors: make(map[string]ReentryDetector),
	handlers:  make(map[string]PropertyHandler),
}

// Effect returns a registered effect definition.
func Effect(name string) (EffectDef, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	def, ok := reg.effects[name]
	return def, ok
}

// SetEffect registers an effect definition, validating every entry as
// either a known mode or an explicit frame list.
func SetEffect(name string, def EffectDef) error {
	if name == "" {
		return fmt.Errorf("anim: effect name must not be empty")
	}
	if len(def) == 0 {
		return fmt.Errorf("anim: effect %q: definition must not be empty", name)
	}
	for prop, v := range def {
		switch tv := v.(type) {
		case string:
			if tv != ModeShow && tv != ModeHide {
				return fmt.Errorf("anim: effect %q: property %q has unknown mode %q", name, prop, tv)
			}
		case []string:
			if len(tv) < 2 {
				return fmt.Errorf("anim: effect %q: property %q needs at least two frames", name, prop)
			}
		default:
			return fmt.Errorf("anim: effect %q: property %q has invalid value of type %T", name, prop, v)
		}
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.effects[name] = def
	return nil
}

// DeleteEffect removes an effect definition.
func DeleteEffect(name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.effects, name)
}

// HasEffect reports whether an effect is registered.
func HasEffect(name string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.effects[name]
	return ok
}

// InverseOf returns the complementary effect used by toggles.
func InverseOf(name string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	inv, ok := reg.inverse[name]
	return inv, ok
}

// SetInverse records a complementary pair in both directions.
func SetInverse(a, b string) error {
	if a == "" || b == "" {
		return fmt.Errorf("anim: inverse pair must not contain empty names")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.inverse[a] = b
	reg.inverse[b] = a
	return nil
}

// Detector returns the re-entry detector for the effect, falling back to
// the first-equals-last default.
func Detector(name string) ReentryDetector {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if d, ok := reg.detectors[name]; ok {
		return d
	}
	return FirstEqualsLast
}

// SetDetector installs a re-entry detector for the effect.
func SetDetector(name string, d ReentryDetector) error {
	if d == nil {
		return fmt.Errorf("anim: detector for %q must not be nil", name)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.detectors[name] = d
	return nil
}

// Handler returns the property handler for a mode.
func Handler(mode string) (PropertyHandler, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	h, ok := reg.handlers[mode]
	return h, ok
}

// SetHandler installs a property handler for a mode.
func SetHandler(mode string, h PropertyHandler) error {
	if mode == "" {
		return fmt.Errorf("anim: handler mode must not be empty")
	}
	if h == nil {
		return fmt.Errorf("anim: handler for mode %q must not be nil", mode)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.handlers[mode] = h
	return nil
}

// FirstEqualsLast is the default re-entry detector: the effect is a no-op
// when every animated property starts and ends on the same value.
func FirstEqualsLast(frames map[string][]string) bool {
	if len(frames) == 0 {
		return true
	}
	for _, vals := range frames {
		if len(vals) == 0 {
			continue
		}
		if vals[0] != vals[len(vals)-1] {
			return false
		}
	}
	return true
}

// cacheKey names the animate-data slot that remembers a property's original
// value ("origheight", "origopacity", ...).
func cacheKey(prop string) string {
	return "orig" + compactProp(prop)
}

func compactProp(prop string) string {
	out := make([]byte, 0, len(prop))
	for i := 0; i < len(prop); i++ {
		if prop[i] != '-' {
			out = append(out, prop[i])
		}
	}
	return string(out)
}

// showHandler grows a property from zero (or its current value, when the
// element is laid out) to its original value, remembering the original on
// first use.
func showHandler(ctx PropContext, prop string) ([]string, error) {
	raw := ctx.ComputedPx(prop)

	var target float64
	if cached, ok := ctx.CacheGet(cacheKey(prop)); ok {
		target, _ = strconv.ParseFloat(trimUnit(cached), 64)
	} else {
		target = raw
		// Opacity has a natural resting value; showing an element that
		// starts fully transparent means fading it all the way in.
		if prop == "opacity" && target == 0 {
			target = 1
		}
		ctx.CacheSet(cacheKey(prop), ctx.Format(prop, target))
	}

	start := 0.0
	if ctx.Displayed() {
		start = raw
	}
	return []string{ctx.Format(prop, start), ctx.Format(prop, target)}, nil
}

// hideHandler shrinks a property from its current value to zero, caching
// the original so a later show can restore it.
func hideHandler(ctx PropContext, prop string) ([]string, error) {
	raw := ctx.ComputedPx(prop)
	if _, ok := ctx.CacheGet(cacheKey(prop)); !ok {
		ctx.CacheSet(cacheKey(prop), ctx.Format(prop, raw))
	}

	start := 0.0
	if ctx.Displayed() {
		start = raw
	}
	return []string{ctx.Format(prop, start), ctx.Format(prop, 0)}, nil
}

func trimUnit(v string) string {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return v[:i]
		}
	}
	return v
}

// Named effect identifiers.
const (
	EffectSlideDown = "slideDown"
	EffectSlideUp   = "slideUp"
	EffectFadeIn    = "fadeIn"
	EffectFadeOut   = "fadeOut"
)

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(SetHandler(ModeShow, showHandler))
	must(SetHandler(ModeHide, hideHandler))

	slideProps := []string{"height", "padding-top", "padding-bottom", "margin-top", "margin-bottom"}
	down := EffectDef{}
	up := EffectDef{}
	for _, p := range slideProps {
		down[p] = ModeShow
		up[p] = ModeHide
	}
	must(SetEffect(EffectSlideDown, down))
	must(SetEffect(EffectSlideUp, up))
	must(SetEffect(EffectFadeIn, EffectDef{"opacity": ModeShow}))
	must(SetEffect(EffectFadeOut, EffectDef{"opacity": ModeHide}))

	must(SetInverse(EffectSlideDown, EffectSlideUp))
	must(SetInverse(EffectFadeIn, EffectFadeOut))
}
