//go:build darwin

package reactor

import "golang.org/x/sys/unix"

// newWakeFD creates a non-blocking self-pipe used to interrupt a
// blocked kevent wait from another goroutine. Grounded on the
// teacher's wakeup_darwin.go createWakeFd (kqueue has no eventfd
// equivalent, so the teacher falls back to a pipe; so do we).
func newWakeFD() (readFD int, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

func wakeFDSignal(writeFD int) error {
	_, err := unix.Write(writeFD, []byte{1})
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func wakeFDDrain(readFD int) {
	var buf [64]byte
	for {
		_, err := unix.Read(readFD, buf[:])
		if err != nil {
			return
		}
	}
}

func closeWakeFDs(readFD, writeFD int) {
	if readFD >= 0 {
		_ = unix.Close(readFD)
	}
	if writeFD >= 0 && writeFD != readFD {
		_ = unix.Close(writeFD)
	}
}
