package tnet

import (
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddresses(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "flowdemo.sock")

	for _, tc := range []struct {
		address string
		network string
		addr    string
	}{
		{address: "localhost:", network: "tcp", addr: `^127\.0\.0\.1:\d+$`},
		{address: "tcp:127.0.0.1:0", network: "tcp", addr: `^127\.0\.0\.1:\d+$`},
		{address: "unix:" + sock, network: "unix", addr: `^` + sock + `$`},
	} {
		t.Run(tc.address, func(t *testing.T) {
			l, err := Listen(tc.address)
			require.NoError(t, err)
			defer l.Close()
			assert.Equal(t, tc.network, l.Addr().Network())
			assert.Regexp(t, tc.addr, l.Addr().String())
		})
	}
}

func TestListenInvalid(t *testing.T) {
	_, err := Listen("tcp:not-a-port")
	assert.Error(t, err)

	_, err = Listen("unix:" + filepath.Join(t.TempDir(), "missing", "dir.sock"))
	assert.Error(t, err)
}

func TestListenOnRandomPortAccepts(t *testing.T) {
	l := ListenOnRandomPort()
	defer l.Close()

	go func() {
		conn, err := net.Dial(l.Addr().Network(), l.Addr().String())
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("ping"))
	}()

	conn, err := l.Accept()
	require.NoError(t, err)
	defer conn.Close()
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))
}
