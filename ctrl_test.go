package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeregisterPendingIsRejected(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer func() {
		_ = r.poller.Close()
		r.wake.Close()
	}()

	tok, err := r.reg.conns.Insert(pendingConn(newPipeEvented(t), func(ConnResult, *ReactorCtrl) (Context, error) {
		return nil, nil
	}))
	require.NoError(t, err)

	ctrl := &ReactorCtrl{r: r}
	_, err = ctrl.Deregister(tok)
	assert.ErrorIs(t, err, ErrDeregisterPending)
}

func TestDeregisterUnknownTokenIsRejected(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer func() {
		_ = r.poller.Close()
		r.wake.Close()
	}()

	ctrl := &ReactorCtrl{r: r}
	_, err = ctrl.Deregister(Token(999999))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRegisterDeregisterRoundTrip(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer func() {
		_ = r.poller.Close()
		r.wake.Close()
	}()

	ctx := &echoContext{sock: newPipeEvented(t), interest: Readable}
	tok, err := r.Register(ctx)
	require.NoError(t, err)

	got, err := r.Deregister(tok)
	require.NoError(t, err)
	assert.Equal(t, ctx, got)
	assert.False(t, r.reg.conns.Contains(tok))
}

func TestTimeoutConnRejectsUnknownToken(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer func() {
		_ = r.poller.Close()
		r.wake.Close()
	}()

	ctrl := &ReactorCtrl{r: r}
	_, err = ctrl.TimeoutConn(10, Token(999999))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestCancelTimeoutPreventsFiring(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	defer func() {
		_ = r.poller.Close()
		r.wake.Close()
	}()

	ctrl := &ReactorCtrl{r: r}
	tok, err := ctrl.Timeout(1000, func(Token, *ReactorCtrl) {
		t.Fatal("cancelled timer must not fire")
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.CancelTimeout(tok))
	assert.False(t, r.reg.timers.Contains(tok))
	assert.Empty(t, r.timers.Expired(time.Now().Add(2*time.Second)))
}
