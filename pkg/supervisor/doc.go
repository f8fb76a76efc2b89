// Package supervisor implements the supervising process: it owns the live
// routing state (applications, fronts, backend instances, certificates) and
// the worker registry, and answers administrative commands arriving on the
// control socket.
//
// Configuration orders mutate the state tables the connection-acceptance path
// consults; every applied order is recorded in the sqlite audit log and, on a
// schedule, the whole state is snapshotted to disk.
package supervisor
