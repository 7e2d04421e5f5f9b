// Package network answers plain HTTP on the TLS port with a redirect to HTTPS.
package network

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte that starts every TLS ClientHello.
const tlsHandshake = 0x16

// AutoHttpsListener wraps a listener whose connections are expected to speak
// TLS. Connections that start with a plain HTTP request get a 307 to the
// https:// URL and are closed.
type AutoHttpsListener struct {
	net.Listener
}

// NewAutoHttpsListener wraps listener.
func NewAutoHttpsListener(listener net.Listener) net.Listener {
	return &AutoHttpsListener{Listener: listener}
}

// Accept implements net.Listener.
func (l *AutoHttpsListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &autoHttpsConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}

type autoHttpsConn struct {
	net.Conn

	reader    *bufio.Reader
	sniffOnce sync.Once
	err       error
}

func (c *autoHttpsConn) Read(buf []byte) (int, error) {
	c.sniffOnce.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.reader.Read(buf)
}

func (c *autoHttpsConn) sniff() {
	first, err := c.reader.Peek(1)
	if err != nil || first[0] == tlsHandshake {
		return
	}

	request, err := http.ReadRequest(c.reader)
	if err != nil {
		c.err = err
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", "https://"+request.Host+request.RequestURI)
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
	c.err = net.ErrClosed
}
