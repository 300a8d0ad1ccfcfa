package reactor

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// fdSocket is the concrete Evented/Sink backing a raw non-blocking TCP
// socket, grounded on the teacher's direct unix-syscall fd ownership
// style in poller_linux.go/poller_darwin.go (fds tracked as bare ints,
// never wrapped in *os.File). Reads/writes go straight through
// unix.Read/unix.Write so EAGAIN translates to the (0, nil) "not
// writable/readable" contract OutQueue and the on_read path expect.
type fdSocket struct {
	fd   int
	peer net.Addr
}

func (s *fdSocket) Fd() int { return s.fd }

func (s *fdSocket) Write(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, nil
	}
	if err != nil {
		return n, err
	}
	return n, nil
}

func (s *fdSocket) Read(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, nil
	}
	if err != nil {
		return n, err
	}
	return n, nil
}

func (s *fdSocket) Close() error {
	return unix.Close(s.fd)
}

// socketError returns the pending SO_ERROR on the socket, used to
// detect a refused/failed non-blocking connect on first writable
// readiness.
func socketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}

// createListener binds and listens on addr, returning a non-blocking
// listener fdSocket.
func createListener(addr string) (*fdSocket, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("reactor: resolve listen addr %q: %w", addr, err)
	}
	domain := unix.AF_INET
	sa := sockaddrFromTCPAddr(tcpAddr)
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("reactor: socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("reactor: setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("reactor: bind %q: %w", addr, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("reactor: listen %q: %w", addr, err)
	}
	if err := setNonblock(fd); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("reactor: set nonblocking: %w", err)
	}
	return &fdSocket{fd: fd, peer: tcpAddr}, nil
}

// acceptOne accepts one pending connection from a listener fd. A nil,
// false, nil return means no connection is currently pending (EAGAIN).
func acceptOne(listenerFD int) (*fdSocket, bool, error) {
	nfd, sa, err := unix.Accept(listenerFD)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := setNonblock(nfd); err != nil {
		_ = unix.Close(nfd)
		return nil, false, err
	}
	return &fdSocket{fd: nfd, peer: addrFromSockaddr(sa)}, true, nil
}

// dialNonblocking starts a non-blocking TCP connect to host:port.
// inProgress reports whether the connect is still underway (EINPROGRESS);
// when false the connect either completed synchronously or failed.
func dialNonblocking(host string, port int) (*fdSocket, bool, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, false, fmt.Errorf("reactor: resolve %q: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, false, fmt.Errorf("reactor: no address found for %q", host)
	}
	ip := ips[0]
	domain := unix.AF_INET
	if ip.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, false, fmt.Errorf("reactor: socket: %w", err)
	}
	if err := setNonblock(fd); err != nil {
		_ = unix.Close(fd)
		return nil, false, err
	}
	sa := sockaddrFromIPPort(ip, port)
	err = unix.Connect(fd, sa)
	peer := &net.TCPAddr{IP: ip, Port: port}
	if err == nil {
		return &fdSocket{fd: fd, peer: peer}, false, nil
	}
	if err == unix.EINPROGRESS {
		return &fdSocket{fd: fd, peer: peer}, true, nil
	}
	_ = unix.Close(fd)
	return nil, false, fmt.Errorf("reactor: connect %s:%d: %w", host, port, err)
}

func sockaddrFromTCPAddr(a *net.TCPAddr) unix.Sockaddr {
	ip := a.IP
	if ip == nil {
		ip = net.IPv4zero
	}
	return sockaddrFromIPPort(ip, a.Port)
}

func sockaddrFromIPPort(ip net.IP, port int) unix.Sockaddr {
	if v4 := ip.To4(); v4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], v4)
		return sa
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa
}

func addrFromSockaddr(sa unix.Sockaddr) net.Addr {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), s.Addr[:]...), Port: s.Port}
	default:
		return nil
	}
}
