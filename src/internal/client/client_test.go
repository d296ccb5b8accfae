// FILE: zkpauth/src/internal/client/client_test.go
package client

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/config"
	"zkpauth/src/internal/store"
	"zkpauth/src/internal/transport"
	"zkpauth/src/internal/zkp"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestService(opts auth.Options) *auth.Coordinator {
	ledger := store.NewLedger(4, store.RegistryOptions{})
	return auth.NewCoordinator(zkp.RFC5114(), ledger, opts, newTestLogger())
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDriverLocal(t *testing.T) {
	testCases := []struct {
		name       string
		derivation zkp.Derivation
	}{
		{"raw", zkp.DerivationRaw},
		{"argon2id", zkp.DerivationArgon2id},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := testContext(t)
			svc := newTestService(auth.Options{})
			d := NewDriver(zkp.RFC5114(), NewLocal(svc), tc.derivation, newTestLogger())

			sessionID, err := d.RegisterAndLogin(ctx, "alice", "correct horse")
			require.NoError(t, err)
			assert.Len(t, sessionID, 12)

			// Logins are repeatable and yield fresh sessions
			again, err := d.Login(ctx, "alice", "correct horse")
			require.NoError(t, err)
			assert.NotEqual(t, sessionID, again)

			_, err = d.Login(ctx, "alice", "battery staple")
			assert.Equal(t, auth.CodePermissionDenied, auth.CodeOf(err))

			_, err = d.Login(ctx, "bob", "correct horse")
			assert.Equal(t, auth.CodeNotFound, auth.CodeOf(err))
		})
	}
}

func TestDriverDerivationMismatch(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(auth.Options{})
	group := zkp.RFC5114()

	raw := NewDriver(group, NewLocal(svc), zkp.DerivationRaw, newTestLogger())
	require.NoError(t, raw.Register(ctx, "alice", "hunter2"))

	hardened := NewDriver(group, NewLocal(svc), zkp.DerivationArgon2id, newTestLogger())
	_, err := hardened.Login(ctx, "alice", "hunter2")
	assert.Equal(t, auth.CodePermissionDenied, auth.CodeOf(err))
}

func TestDriverEmptyUser(t *testing.T) {
	ctx := testContext(t)
	d := NewDriver(zkp.RFC5114(), NewLocal(newTestService(auth.Options{})), zkp.DerivationRaw, newTestLogger())

	err := d.Register(ctx, "  ", "pw")
	assert.Equal(t, auth.CodeInvalidArgument, auth.CodeOf(err))
}

func TestLocalHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(zkp.RFC5114(), NewLocal(newTestService(auth.Options{})), zkp.DerivationRaw, newTestLogger())
	_, err := d.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriverHTTP(t *testing.T) {
	ctx := testContext(t)
	handler := transport.NewHandler(newTestService(auth.Options{}), nil, newTestLogger())
	srv, err := transport.NewHTTPServer("127.0.0.1", config.HTTPConfig{
		Port:           8080,
		PathPrefix:     "/zkp",
		ReadTimeoutMs:  2000,
		WriteTimeoutMs: 2000,
		MaxBodySize:    64 * 1024,
	}, handler, newTestLogger())
	require.NoError(t, err)

	ln := fasthttputil.NewInmemoryListener()
	srv.Serve(ln)
	t.Cleanup(srv.Stop)

	tr := NewHTTPTransport("zkpauth.test", "/zkp/", 5*time.Second, newTestLogger()).
		WithDial(func(addr string) (net.Conn, error) { return ln.Dial() })
	defer tr.Close()

	d := NewDriver(zkp.RFC5114(), tr, zkp.DerivationArgon2id, newTestLogger())
	sessionID, err := d.RegisterAndLogin(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Len(t, sessionID, 12)

	_, err = d.Login(ctx, "alice", "wrong")
	assert.Equal(t, auth.CodePermissionDenied, auth.CodeOf(err))

	_, err = tr.VerifyAnswer(ctx, &auth.AnswerRequest{AuthID: "missing", S: []byte{1}})
	assert.Equal(t, auth.CodeNotFound, auth.CodeOf(err))
}

func TestHTTPBaseURL(t *testing.T) {
	testCases := []struct {
		address string
		prefix  string
		want    string
	}{
		{address: "127.0.0.1:50052", want: "http://127.0.0.1:50052"},
		{address: "https://auth.example.com/", want: "https://auth.example.com"},
		{address: "auth.example.com:8443", prefix: "/zkp", want: "http://auth.example.com:8443/zkp"},
		{address: "http://auth.example.com", prefix: "zkp/v1/", want: "http://auth.example.com/zkp/v1"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, baseURL(tc.address, tc.prefix))
		})
	}
}

func TestDriverTCP(t *testing.T) {
	ctx := testContext(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	handler := transport.NewHandler(newTestService(auth.Options{ConsumeOnVerify: true}), nil, newTestLogger())
	srv, err := transport.NewTCPServer("127.0.0.1", config.TCPConfig{Enabled: true, Port: int64(port)}, handler, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	tr, err := NewTransport(ctx, config.ClientConfig{
		Transport:      "tcp",
		Address:        fmt.Sprintf("127.0.0.1:%d", port),
		TimeoutSeconds: 5,
	}, newTestLogger())
	require.NoError(t, err)
	defer tr.Close()

	d := NewDriver(zkp.RFC5114(), tr, zkp.DerivationRaw, newTestLogger())
	sessionID, err := d.RegisterAndLogin(ctx, "alice", "pa55word")
	require.NoError(t, err)
	assert.Len(t, sessionID, 12)

	// Calls on one connection are serialized
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Login(ctx, "alice", "pa55word")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// Concurrent challenges for one user overwrite each other; only the
	// last issued c can verify, the rest are consumed or rejected.
	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		code := auth.CodeOf(err)
		assert.True(t, code == auth.CodePermissionDenied || code == auth.CodeNotFound, "unexpected code %s", code)
	}
	assert.GreaterOrEqual(t, accepted, 1)
}

func TestNewTransportRejectsUnknown(t *testing.T) {
	_, err := NewTransport(context.Background(), config.ClientConfig{Transport: "carrier-pigeon"}, newTestLogger())
	assert.Error(t, err)
}

func TestDialTCPFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = DialTCP(context.Background(), addr, time.Second, newTestLogger())
	assert.Error(t, err)
}

func TestSecretUsesReducedPassword(t *testing.T) {
	group := zkp.RFC5114()
	d := NewDriver(group, nil, zkp.DerivationRaw, newTestLogger())

	x := d.secret("alice", "abc")
	assert.Equal(t, 0, x.Cmp(new(big.Int).SetBytes([]byte("abc"))))
}
