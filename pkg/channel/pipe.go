package channel

import "net"

// Pipe returns two connected in-memory channels: what one side writes, the
// other reads. Intended for tests and in-process supervisor/worker wiring.
func Pipe[A, B any]() (*Channel[A, B], *Channel[B, A]) {
	left, right := net.Pipe()
	return New[A, B](left), New[B, A](right)
}
