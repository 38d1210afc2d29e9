package tinyhtml

import (
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/tinyhtml/anim"
	"github.com/xkilldash9x/tinyhtml/browser"
	"github.com/xkilldash9x/tinyhtml/style"
)

// cancelOldAnim controls whether starting an effect on a busy element
// cancels the active animation first. On by default; when off the new
// animation still takes over the slot but the old timer keeps running.
var cancelOldAnim atomic.Bool

func init() { cancelOldAnim.Store(true) }

// SetCancelOldAnimations flips the cancel-on-replace policy.
func SetCancelOldAnimations(v bool) { cancelOldAnim.Store(v) }

// origDisplayKey remembers the pre-hide display value in the animate-data
// bag.
const origDisplayKey = "origdisplay"

// propCtx adapts one element to the property-handler contract: computed
// style reads and the per-element animate-data bag.
type propCtx struct {
	n *html.Node
}

func (c propCtx) Computed(prop string) string { return computed(c.n)[prop] }

func (c propCtx) ComputedPx(prop string) float64 {
	v := style.ParsePx(computed(c.n)[prop])
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (c propCtx) CacheGet(key string) (string, bool) { return browser.AnimCacheGet(c.n, key) }
func (c propCtx) CacheSet(key, value string)         { browser.AnimCacheSet(c.n, key, value) }
func (c propCtx) Displayed() bool                    { return displayed(c.n) }

func (c propCtx) Format(prop string, v float64) string {
	return style.FormatPx(prop, v)
}

// effectDirection classifies an effect by its definition: show when any
// property uses the show mode, hide when any uses hide, neutral for
// explicit frame lists.
func effectDirection(def anim.EffectDef) string {
	for _, v := range def {
		if mode, ok := v.(string); ok {
			return mode
		}
	}
	return ""
}

// buildFrames expands an effect definition into per-property frame values
// for one element.
func buildFrames(n *html.Node, def anim.EffectDef) (map[string][]string, error) {
	ctx := propCtx{n: n}
	frames := make(map[string][]string, len(def))
	for prop, v := range def {
		switch tv := v.(type) {
		case string:
			h, ok := anim.Handler(tv)
			if !ok {
				return nil, &DomainError{Method: "Animate", Param: "effect", Msg: "no handler for mode " + tv}
			}
			vals, err := h(ctx, prop)
			if err != nil {
				return nil, err
			}
			frames[prop] = vals
		case []string:
			frames[prop] = tv
		}
	}
	return frames, nil
}

// transpose turns per-property frame lists into a keyframe sequence.
// Shorter lists hold their last value through the remaining frames.
func transpose(frames map[string][]string) []anim.Keyframe {
	max := 0
	for _, vals := range frames {
		if len(vals) > max {
			max = len(vals)
		}
	}
	out := make([]anim.Keyframe, max)
	for i := range out {
		kf := make(anim.Keyframe, len(frames))
		for prop, vals := range frames {
			if len(vals) == 0 {
				continue
			}
			j := i
			if j >= len(vals) {
				j = len(vals) - 1
			}
			kf[prop] = vals[j]
		}
		out[i] = kf
	}
	return out
}

// Animate runs a registered effect on the single element target. The
// options argument accepts nil, a duration in milliseconds, a named speed
// or a full timing record.
//
// A nil animation with a nil error is the re-entry signal: the effect's
// detector judged the run a visible no-op and nothing was scheduled.
func (w *Wrapper) Animate(effect string, opts any) (*anim.Animation, error) {
	t, err := w.single("Animate")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "Animate", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	def, ok := anim.Effect(effect)
	if !ok {
		return nil, &DomainError{Method: "Animate", Param: "effect", Msg: "unknown effect " + effect}
	}

	n := t.Node
	frames, err := buildFrames(n, def)
	if err != nil {
		return nil, err
	}
	if anim.Detector(effect)(frames) {
		return nil, nil
	}

	timing, err := anim.ResolveOptions(opts)
	if err != nil {
		return nil, &TypeError{Method: "Animate", Param: "opts", Msg: err.Error()}
	}

	return w.playFrames(n, effect, transpose(frames), timing, effectDirection(def))
}

// AnimateKeyframes schedules caller-built keyframes on the single element
// target, bypassing the effect registries.
func (w *Wrapper) AnimateKeyframes(keyframes []anim.Keyframe, opts any) (*anim.Animation, error) {
	t, err := w.single("AnimateKeyframes")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "AnimateKeyframes", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	if len(keyframes) < 2 {
		return nil, &DomainError{Method: "AnimateKeyframes", Param: "keyframes", Msg: "need at least two frames"}
	}
	timing, err := anim.ResolveOptions(opts)
	if err != nil {
		return nil, &TypeError{Method: "AnimateKeyframes", Param: "opts", Msg: err.Error()}
	}
	return w.playFrames(t.Node, "", keyframes, timing, "")
}

func (w *Wrapper) playFrames(n *html.Node, effect string, keyframes []anim.Keyframe, timing anim.Timing, direction string) (*anim.Animation, error) {
	if slot := browser.GetAnimationSlot(n); slot != nil && cancelOldAnim.Load() {
		slot.Handle.Cancel()
		browser.ClearAnimationSlot(n, slot.Handle)
	}

	// A show effect on a hidden element has to restore display before the
	// box can grow; the original value was cached when it was hidden.
	if direction == anim.ModeShow && !displayed(n) {
		disp, ok := browser.AnimCacheGet(n, origDisplayKey)
		if !ok || disp == "" || disp == "none" {
			disp = "block"
		}
		style.SetInline(n, "display", disp)
	}

	commit := func(final anim.Keyframe) {
		for prop, val := range final {
			style.SetInline(n, prop, val)
		}
		if direction == anim.ModeHide {
			if cur := computed(n)["display"]; cur != "none" {
				browser.AnimCacheSet(n, origDisplayKey, cur)
			}
			style.SetInline(n, "display", "none")
		}
	}

	a := anim.New(keyframes, timing, commit)
	a.OnFinish(func(done *anim.Animation) {
		browser.ClearAnimationSlot(n, done)
	})
	browser.SetAnimationSlot(n, &browser.AnimationSlot{EffectID: effect, Handle: a})
	a.Play()
	return a, nil
}

// Stop cancels the active animation of every target. Cancelled animations
// never commit their fill.
func (w *Wrapper) Stop() *Wrapper {
	for _, t := range w.targets {
		if slot := browser.GetAnimationSlot(t.key()); slot != nil {
			slot.Handle.Cancel()
			browser.ClearAnimationSlot(t.key(), slot.Handle)
		}
	}
	return w
}

// FinishAnimations fast-forwards the active animation of every target,
// committing fills synchronously.
func (w *Wrapper) FinishAnimations() *Wrapper {
	for _, t := range w.targets {
		if slot := browser.GetAnimationSlot(t.key()); slot != nil {
			if a, ok := slot.Handle.(*anim.Animation); ok {
				a.Finish()
			}
		}
	}
	return w
}

// CurrentAnimationID returns the effect name of the single target's active
// animation, ok false when idle.
func (w *Wrapper) CurrentAnimationID() (string, bool, error) {
	t, err := w.single("CurrentAnimationID")
	if err != nil {
		return "", false, err
	}
	slot := browser.GetAnimationSlot(t.key())
	if slot == nil {
		return "", false, nil
	}
	return slot.EffectID, true, nil
}

// SlideDown grows the single target open.
func (w *Wrapper) SlideDown(opts any) (*anim.Animation, error) {
	return w.Animate(anim.EffectSlideDown, opts)
}

// SlideUp collapses the single target shut and hides it on finish.
func (w *Wrapper) SlideUp(opts any) (*anim.Animation, error) {
	return w.Animate(anim.EffectSlideUp, opts)
}

// SlideToggle runs slideUp on a displayed target and slideDown otherwise.
func (w *Wrapper) SlideToggle(opts any) (*anim.Animation, error) {
	return w.toggleEffect("SlideToggle", anim.EffectSlideUp, opts)
}

// FadeIn fades the single target in.
func (w *Wrapper) FadeIn(opts any) (*anim.Animation, error) {
	return w.Animate(anim.EffectFadeIn, opts)
}

// FadeOut fades the single target out and hides it on finish.
func (w *Wrapper) FadeOut(opts any) (*anim.Animation, error) {
	return w.Animate(anim.EffectFadeOut, opts)
}

// FadeToggle runs fadeOut on a displayed target and fadeIn otherwise.
func (w *Wrapper) FadeToggle(opts any) (*anim.Animation, error) {
	return w.toggleEffect("FadeToggle", anim.EffectFadeOut, opts)
}

// toggleEffect picks the toggle direction. A run of the pair already in
// flight wins over layout: toggling mid-hide reverses into the show effect
// even though the element still has a box, and vice versa. Idle elements
// fall back to whether they are displayed.
func (w *Wrapper) toggleEffect(method, hideEffect string, opts any) (*anim.Animation, error) {
	t, err := w.single(method)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: method, Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	showEffect, okInv := anim.InverseOf(hideEffect)

	effect := hideEffect
	reversing := false
	active := ""
	slot := browser.GetAnimationSlot(t.Node)
	if slot != nil {
		active = slot.EffectID
	}
	switch {
	case active == hideEffect:
		effect, reversing = showEffect, true
	case okInv && active == showEffect:
		effect, reversing = hideEffect, true
	case !displayed(t.Node):
		effect = showEffect
	}
	if effect == "" {
		return nil, &DomainError{Method: method, Param: "effect", Msg: "no inverse registered for " + hideEffect}
	}

	// Abandon the run being reversed here rather than in playFrames: when
	// the reverse turns out to be a visible no-op nothing gets scheduled,
	// and the old animation must still never commit.
	if reversing {
		slot.Handle.Cancel()
		browser.ClearAnimationSlot(t.Node, slot.Handle)
	}
	return w.Animate(effect, opts)
}

// FadeTo animates opacity from its current value to target in [0, 1]. A
// hidden element gets its display restored first so the fade is visible.
func (w *Wrapper) FadeTo(target float64, opts any) (*anim.Animation, error) {
	if target < 0 || target > 1 || math.IsNaN(target) {
		return nil, &DomainError{Method: "FadeTo", Param: "target", Msg: "opacity must be within [0, 1]"}
	}
	t, err := w.single("FadeTo")
	if err != nil {
		return nil, err
	}
	if t.Kind != KindElement {
		return nil, &KindMismatchError{Method: "FadeTo", Accepted: []TargetKind{KindElement}, Got: t.Kind}
	}
	cur := style.ParseFloat(computed(t.Node)["opacity"])
	keyframes := []anim.Keyframe{
		{"opacity": style.FormatNumber(cur)},
		{"opacity": style.FormatNumber(target)},
	}
	timing, err := anim.ResolveOptions(opts)
	if err != nil {
		return nil, &TypeError{Method: "FadeTo", Param: "opts", Msg: err.Error()}
	}
	return w.playFrames(t.Node, "", keyframes, timing, anim.ModeShow)
}

// easeInOutCubic is the easing used for programmatic scrolling.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func (w *Wrapper) scrollWindow(method string) (*browser.Window, error) {
	t, err := w.single(method)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindWindow {
		return nil, &KindMismatchError{Method: method, Accepted: []TargetKind{KindWindow}, Got: t.Kind}
	}
	return t.Win, nil
}

// ScrollLeft returns the single window target's horizontal scroll offset.
func (w *Wrapper) ScrollLeft() (float64, error) {
	win, err := w.scrollWindow("ScrollLeft")
	if err != nil {
		return 0, err
	}
	x, _ := win.Scroll()
	return x, nil
}

// ScrollTop returns the single window target's vertical scroll offset.
func (w *Wrapper) ScrollTop() (float64, error) {
	win, err := w.scrollWindow("ScrollTop")
	if err != nil {
		return 0, err
	}
	_, y := win.Scroll()
	return y, nil
}

// SetScrollLeft jumps the horizontal scroll offset.
func (w *Wrapper) SetScrollLeft(x float64) error {
	win, err := w.scrollWindow("SetScrollLeft")
	if err != nil {
		return err
	}
	_, y := win.Scroll()
	win.SetScroll(x, y)
	return nil
}

// SetScrollTop jumps the vertical scroll offset.
func (w *Wrapper) SetScrollTop(y float64) error {
	win, err := w.scrollWindow("SetScrollTop")
	if err != nil {
		return err
	}
	x, _ := win.Scroll()
	win.SetScroll(x, y)
	return nil
}

// ScrollTo animates the single window target's scroll offsets to (x, y)
// over the duration, easing in and out. A zero duration jumps immediately.
func (w *Wrapper) ScrollTo(x, y float64, duration time.Duration) error {
	win, err := w.scrollWindow("ScrollTo")
	if err != nil {
		return err
	}
	if duration <= 0 {
		win.SetScroll(x, y)
		return nil
	}

	startX, startY := win.Scroll()
	const step = 16 * time.Millisecond
	go func() {
		ticker := time.NewTicker(step)
		defer ticker.Stop()
		begin := time.Now()
		for range ticker.C {
			p := float64(time.Since(begin)) / float64(duration)
			if p >= 1 {
				win.SetScroll(x, y)
				return
			}
			e := easeInOutCubic(p)
			win.SetScroll(startX+(x-startX)*e, startY+(y-startY)*e)
		}
	}()
	return nil
}
