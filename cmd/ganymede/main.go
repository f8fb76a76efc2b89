// Ganymede is a reverse-proxy control plane: a supervising process owning the
// routing state and worker registry, driven over a unix control socket.
//
// Usage:
//
//	# Start the supervisor with the default configuration
//	ganymede run
//
//	# Register an application and a backend
//	ganymede application add --id app-1
//	ganymede backend add --id app-1 --instance-id i-0 --address 127.0.0.1 --port 8080
//
//	# Poll worker liveness
//	ganymede status
//
//	# Zero-downtime restart
//	ganymede upgrade
//
// For complete documentation, see: https://github.com/mercator-hq/ganymede
package main

func main() {
	Execute()
}
