package spheres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalEmitsInSubscriptionOrder(t *testing.T) {
	var s Signal[int]
	var got []string
	s.Subscribe(func(v int) { got = append(got, "a") })
	s.Subscribe(func(v int) { got = append(got, "b") })
	s.Emit(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSignalUnsubscribeInsideHandler(t *testing.T) {
	var s Signal[int]
	calls := 0
	var sub *Subscription
	sub = s.Subscribe(func(int) {
		calls++
		sub.Unsubscribe()
		sub.Unsubscribe()
	})
	s.Emit(1)
	s.Emit(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.Len())
}

func TestSubscriptionsClose(t *testing.T) {
	var s Signal[string]
	var subs Subscriptions
	subs.Add(s.Subscribe(func(string) {}))
	subs.Add(s.Subscribe(func(string) {}))
	assert.Equal(t, 2, s.Len())

	subs.Close()
	subs.Close()
	assert.Equal(t, 0, s.Len())

	var nilSub *Subscription
	nilSub.Unsubscribe()
}
