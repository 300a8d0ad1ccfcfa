//go:build linux

package reactor

import "golang.org/x/sys/unix"

// newWakeFD creates an eventfd used to interrupt a blocked epoll_wait
// from another goroutine (the NotifyChannel producer side). Grounded
// on the teacher's wakeup_linux.go createWakeFd.
func newWakeFD() (readFD int, writeFD int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

func wakeFDSignal(writeFD int) error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(writeFD, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func wakeFDDrain(readFD int) {
	var buf [8]byte
	for {
		_, err := unix.Read(readFD, buf[:])
		if err != nil {
			return
		}
	}
}

func closeWakeFDs(readFD, _ int) {
	if readFD >= 0 {
		_ = unix.Close(readFD)
	}
}
