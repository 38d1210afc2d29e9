package anim

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Fill modes.
const (
	FillNone     = "none"
	FillForwards = "forwards"
)

// DefaultSpeedName is the named speed used when options are omitted or an
// unknown speed name is given.
const DefaultSpeedName = "_default"

// Timing is a resolved timing record for one animation.
type Timing struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   string
	Fill     string
}

var speedReg = struct {
	mu sync.RWMutex
	m  map[string]Timing
}{
	m: map[string]Timing{
		"slow":           {Duration: 600 * time.Millisecond},
		"fast":           {Duration: 200 * time.Millisecond, Easing: "ease-out"},
		DefaultSpeedName: {Duration: 400 * time.Millisecond},
	},
}

// Speed looks up a named speed.
func Speed(name string) (Timing, bool) {
	speedReg.mu.RLock()
	defer speedReg.mu.RUnlock()
	t, ok := speedReg.m[name]
	return t, ok
}

// SetSpeed installs or replaces a named speed after validating it.
func SetSpeed(name string, t Timing) error {
	if name == "" {
		return fmt.Errorf("anim: speed name must not be empty")
	}
	if t.Duration <= 0 {
		return fmt.Errorf("anim: speed %q: duration must be positive", name)
	}
	if t.Delay < 0 {
		return fmt.Errorf("anim: speed %q: delay must not be negative", name)
	}
	speedReg.mu.Lock()
	defer speedReg.mu.Unlock()
	speedReg.m[name] = t
	return nil
}

// DeleteSpeed removes a named speed. The default entry cannot be removed.
func DeleteSpeed(name string) error {
	if name == DefaultSpeedName {
		return fmt.Errorf("anim: the %s speed cannot be deleted", DefaultSpeedName)
	}
	speedReg.mu.Lock()
	defer speedReg.mu.Unlock()
	delete(speedReg.m, name)
	return nil
}

// SpeedNames returns the registered speed names, sorted.
func SpeedNames() []string {
	speedReg.mu.RLock()
	defer speedReg.mu.RUnlock()
	names := make([]string, 0, len(speedReg.m))
	for n := range speedReg.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolveOptions turns the polymorphic options argument of animate into a
// full timing record:
//
//   - nil resolves to the default named speed
//   - a number (ms) or time.Duration sets the duration
//   - a string resolves against the speed table, unknown names falling
//     through to the default
//   - a Timing record passes through after validation
//
// A missing fill mode defaults to forwards.
func ResolveOptions(opts any) (Timing, error) {
	var t Timing
	switch v := opts.(type) {
	case nil:
		t, _ = Speed(DefaultSpeedName)
	case Timing:
		t = v
	case *Timing:
		if v == nil {
			t, _ = Speed(DefaultSpeedName)
		} else {
			t = *v
		}
	case time.Duration:
		t = Timing{Duration: v}
	case int:
		t = Timing{Duration: time.Duration(v) * time.Millisecond}
	case int64:
		t = Timing{Duration: time.Duration(v) * time.Millisecond}
	case float64:
		t = Timing{Duration: time.Duration(v * float64(time.Millisecond))}
	case string:
		named, ok := Speed(v)
		if !ok {
			named, _ = Speed(DefaultSpeedName)
		}
		t = named
	default:
		return Timing{}, fmt.Errorf("anim: invalid animation options of type %T", opts)
	}

	if t.Duration < 0 {
		return Timing{}, fmt.Errorf("anim: options: duration must not be negative")
	}
	if t.Delay < 0 {
		return Timing{}, fmt.Errorf("anim: options: delay must not be negative")
	}
	if t.Fill == "" {
		t.Fill = FillForwards
	}
	return t, nil
}
