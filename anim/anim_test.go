package anim_test

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/tinyhtml/anim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResolveOptions(t *testing.T) {
	// Omitted options resolve to the default speed with a forwards fill.
	timing, err := anim.ResolveOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, timing.Duration)
	assert.Equal(t, anim.FillForwards, timing.Fill)

	// A named speed resolves duration and easing.
	timing, err = anim.ResolveOptions("fast")
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, timing.Duration)
	assert.Equal(t, "ease-out", timing.Easing)
	assert.Equal(t, anim.FillForwards, timing.Fill)

	// Unknown names fall through to the default.
	timing, err = anim.ResolveOptions("warp")
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, timing.Duration)

	// Numbers are durations in milliseconds.
	timing, err = anim.ResolveOptions(250)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, timing.Duration)

	// Explicit records pass through; fill stays when given.
	timing, err = anim.ResolveOptions(anim.Timing{Duration: time.Second, Fill: anim.FillNone})
	require.NoError(t, err)
	assert.Equal(t, anim.FillNone, timing.Fill)

	_, err = anim.ResolveOptions(true)
	require.Error(t, err)

	_, err = anim.ResolveOptions(anim.Timing{Duration: -time.Second})
	require.Error(t, err)
}

func TestSpeedRegistry(t *testing.T) {
	require.NoError(t, anim.SetSpeed("crawl", anim.Timing{Duration: time.Second}))
	defer func() { _ = anim.DeleteSpeed("crawl") }()

	got, ok := anim.Speed("crawl")
	require.True(t, ok)
	assert.Equal(t, time.Second, got.Duration)
	assert.Contains(t, anim.SpeedNames(), "crawl")

	assert.Error(t, anim.SetSpeed("bad", anim.Timing{Duration: 0}))
	assert.Error(t, anim.SetSpeed("", anim.Timing{Duration: time.Second}))
	assert.Error(t, anim.DeleteSpeed(anim.DefaultSpeedName))
}

func TestAnimationLifecycle(t *testing.T) {
	var mu sync.Mutex
	var committed anim.Keyframe
	var finished bool

	frames := []anim.Keyframe{{"opacity": "1"}, {"opacity": "0.5"}}
	a := anim.New(frames, anim.Timing{Duration: 10 * time.Millisecond, Fill: anim.FillForwards}, func(final anim.Keyframe) {
		mu.Lock()
		committed = final
		mu.Unlock()
	})
	a.OnFinish(func(*anim.Animation) {
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	assert.Equal(t, anim.StateIdle, a.PlayState())
	a.Play()
	assert.Equal(t, anim.StateRunning, a.PlayState())

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return finished
	}, time.Second, time.Millisecond)

	assert.Equal(t, anim.StateFinished, a.PlayState())
	mu.Lock()
	assert.Equal(t, "0.5", committed["opacity"], "forwards fill commits the final frame")
	mu.Unlock()
}

func TestAnimationCancel(t *testing.T) {
	var committed bool
	a := anim.New([]anim.Keyframe{{"height": "0px"}, {"height": "50px"}},
		anim.Timing{Duration: 50 * time.Millisecond, Fill: anim.FillForwards},
		func(anim.Keyframe) { committed = true })

	a.Play()
	a.Cancel()
	assert.Equal(t, anim.StateIdle, a.PlayState())

	time.Sleep(80 * time.Millisecond)
	assert.False(t, committed, "a cancelled animation never commits its fill")
}

func TestAnimationFinishFastForward(t *testing.T) {
	var committed bool
	a := anim.New([]anim.Keyframe{{"height": "0px"}, {"height": "50px"}},
		anim.Timing{Duration: time.Hour, Fill: anim.FillForwards},
		func(anim.Keyframe) { committed = true })

	a.Play()
	a.Finish()
	assert.Equal(t, anim.StateFinished, a.PlayState())
	assert.True(t, committed)
}

func TestEffectRegistry(t *testing.T) {
	def, ok := anim.Effect(anim.EffectSlideDown)
	require.True(t, ok)
	assert.Equal(t, anim.ModeShow, def["height"])
	assert.Equal(t, anim.ModeShow, def["padding-top"])

	inv, ok := anim.InverseOf(anim.EffectSlideDown)
	require.True(t, ok)
	assert.Equal(t, anim.EffectSlideUp, inv)
	inv, _ = anim.InverseOf(anim.EffectSlideUp)
	assert.Equal(t, anim.EffectSlideDown, inv)

	assert.Error(t, anim.SetEffect("broken", anim.EffectDef{"height": "wiggle"}))
	assert.Error(t, anim.SetEffect("broken", anim.EffectDef{"height": 3}))
	assert.Error(t, anim.SetEffect("", anim.EffectDef{"height": anim.ModeShow}))

	require.NoError(t, anim.SetEffect("pulse", anim.EffectDef{"opacity": []string{"1", "0.2", "1"}}))
	assert.True(t, anim.HasEffect("pulse"))
	anim.DeleteEffect("pulse")
	assert.False(t, anim.HasEffect("pulse"))
}

func TestFirstEqualsLast(t *testing.T) {
	assert.True(t, anim.FirstEqualsLast(map[string][]string{
		"height":      {"50px", "50px"},
		"padding-top": {"10px", "10px"},
	}))
	assert.False(t, anim.FirstEqualsLast(map[string][]string{
		"height":      {"50px", "50px"},
		"padding-top": {"0px", "10px"},
	}))
	assert.True(t, anim.FirstEqualsLast(nil))
}

type fakeCtx struct {
	computed  map[string]float64
	cache     map[string]string
	displayed bool
}

func (f *fakeCtx) Computed(prop string) string { return "" }
func (f *fakeCtx) ComputedPx(prop string) float64 {
	return f.computed[prop]
}
func (f *fakeCtx) CacheGet(key string) (string, bool) {
	v, ok := f.cache[key]
	return v, ok
}
func (f *fakeCtx) CacheSet(key, value string) { f.cache[key] = value }
func (f *fakeCtx) Displayed() bool            { return f.displayed }
func (f *fakeCtx) Format(prop string, v float64) string {
	if prop == "opacity" {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func TestShowHideHandlers(t *testing.T) {
	show, ok := anim.Handler(anim.ModeShow)
	require.True(t, ok)
	hide, ok := anim.Handler(anim.ModeHide)
	require.True(t, ok)

	// Hiding a visible 50px-high element runs 50 -> 0 and caches the
	// original.
	ctx := &fakeCtx{computed: map[string]float64{"height": 50}, cache: map[string]string{}, displayed: true}
	frames, err := hide(ctx, "height")
	require.NoError(t, err)
	assert.Equal(t, []string{"50px", "0px"}, frames)
	assert.Equal(t, "50px", ctx.cache["origheight"])

	// Showing a hidden element runs 0 -> original.
	ctx2 := &fakeCtx{computed: map[string]float64{"height": 50}, cache: map[string]string{"origheight": "50px"}, displayed: false}
	frames, err = show(ctx2, "height")
	require.NoError(t, err)
	assert.Equal(t, "0px", frames[0])
	assert.Equal(t, "50px", frames[1])

	// Showing an already-visible element produces equal first/last frames,
	// the re-entry signal.
	ctx3 := &fakeCtx{computed: map[string]float64{"height": 50}, cache: map[string]string{"origheight": "50px"}, displayed: true}
	frames, err = show(ctx3, "height")
	require.NoError(t, err)
	assert.Equal(t, frames[0], frames[1])
}
