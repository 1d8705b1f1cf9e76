package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SolidWallOfCode/txn-box-sub000/hook"
	"github.com/SolidWallOfCode/txn-box-sub000/proxy"
)

func TestHeaderRoundTrip(t *testing.T) {
	a := New()
	a.SetHeader(proxy.UAReqHdr, "Host", "example.com")
	v, ok := a.Header(proxy.UAReqHdr, "Host")
	require.True(t, ok)
	assert.Equal(t, "example.com", v)

	a.DeleteHeader(proxy.UAReqHdr, "Host")
	_, ok = a.Header(proxy.UAReqHdr, "Host")
	assert.False(t, ok)
}

func TestStatCreateIsIdempotent(t *testing.T) {
	a := New()
	id1, err := a.StatCreate("requests")
	require.NoError(t, err)
	id2, err := a.StatCreate("requests")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	a.StatUpdate(id1, 3)
	a.StatUpdate(id1, 2)
	v, err := a.StatValue("requests")
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
}

func TestHookDispatch(t *testing.T) {
	a := New()
	var ran []string
	a.RegisterHook(hook.Remap, func() { ran = append(ran, "first") })
	a.RegisterHook(hook.Remap, func() { ran = append(ran, "second") })
	a.RunHook(hook.Remap)
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestScheduleTaskDeferred(t *testing.T) {
	a := New()
	ran := false
	a.ScheduleTask(0, func() { ran = true })
	assert.False(t, ran)
	a.RunTasks()
	assert.True(t, ran)
}
