package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock records scheduled callbacks and fires them on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// fireAll runs every scheduled callback, stopped or not, the way a timer
// that already fired before Stop would.
func (c *manualClock) fireAll() {
	c.mu.Lock()
	timers := append([]*manualTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type recorder[T any] struct {
	mu   sync.Mutex
	args []T
}

func (r *recorder[T]) record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = append(r.args, v)
}

func (r *recorder[T]) got() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.args...)
}

func TestDebouncerTrailingCall(t *testing.T) {
	clock := &manualClock{}
	rec := &recorder[int]{}
	d := New(50*time.Millisecond, rec.record, WithClock(clock))

	d.Call(1)
	d.Call(2)
	d.Call(3)

	assert.True(t, d.Pending())
	assert.Empty(t, rec.got(), "no leading-edge call")
	assert.Equal(t, 3, clock.count())

	clock.fireAll()

	assert.Equal(t, []int{3}, rec.got())
	assert.False(t, d.Pending())
}

func TestDebouncerUsesDelay(t *testing.T) {
	clock := &manualClock{}
	d := New(250*time.Millisecond, func(string) {}, WithClock(clock))
	d.Call("a")
	require.Equal(t, 1, clock.count())
	assert.Equal(t, 250*time.Millisecond, clock.timers[0].delay)

	neg := New(-time.Second, func(string) {}, WithClock(clock))
	neg.Call("b")
	assert.Equal(t, time.Duration(0), clock.timers[1].delay)
}

func TestDebouncerCancel(t *testing.T) {
	clock := &manualClock{}
	rec := &recorder[string]{}
	d := New(time.Second, rec.record, WithClock(clock))

	assert.False(t, d.Cancel(), "nothing pending")

	d.Call("query")
	assert.True(t, d.Cancel())
	assert.False(t, d.Pending())

	clock.fireAll()
	assert.Empty(t, rec.got())

	d.Call("again")
	clock.fireAll()
	assert.Equal(t, []string{"again"}, rec.got())
}

func TestDebouncerFlush(t *testing.T) {
	clock := &manualClock{}
	rec := &recorder[string]{}
	d := New(time.Second, rec.record, WithClock(clock))

	assert.False(t, d.Flush())

	d.Call("sh")
	d.Call("shoe")
	assert.True(t, d.Flush())
	assert.Equal(t, []string{"shoe"}, rec.got())

	clock.fireAll()
	assert.Equal(t, []string{"shoe"}, rec.got(), "flushed timer must not deliver again")
}

func TestDebouncerBindContext(t *testing.T) {
	clock := &manualClock{}
	rec := &recorder[int]{}
	d := New(time.Second, rec.record, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	stop := d.BindContext(ctx)
	defer stop()

	d.Call(7)
	cancel()

	assert.Eventually(t, func() bool { return !d.Pending() }, time.Second, time.Millisecond)
	clock.fireAll()
	assert.Empty(t, rec.got())
}

func TestDebouncerRealClock(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Int32
	d := New(100*time.Millisecond, func(v int32) {
		calls.Add(1)
		last.Store(v)
	})

	for i := int32(1); i <= 5; i++ {
		d.Call(i)
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestDebouncerIndependentInstances(t *testing.T) {
	clock := &manualClock{}
	a, b := &recorder[int]{}, &recorder[int]{}
	da := New(time.Second, a.record, WithClock(clock))
	db := New(time.Second, b.record, WithClock(clock))

	da.Call(1)
	db.Call(2)
	da.Cancel()
	clock.fireAll()

	assert.Empty(t, a.got())
	assert.Equal(t, []int{2}, b.got())
}

func TestDebouncerConcurrentCalls(t *testing.T) {
	clock := &manualClock{}
	rec := &recorder[int]{}
	d := New(time.Second, rec.record, WithClock(clock))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Call(i)
		}()
	}
	wg.Wait()

	clock.fireAll()
	assert.Len(t, rec.got(), 1)
}
