// Package command defines the vocabulary exchanged over the control channel:
// administrative commands sent by the ganymede CLI, configuration orders
// applied to the live routing tables, and the answers the supervisor emits in
// response.
//
// Commands and answers are correlated by an opaque caller-generated id. For a
// single command the channel may emit zero or more Processing answers followed
// by exactly one terminal Error or Ok answer carrying the same id; a caller
// must not consider a command complete until a terminal status arrives.
//
// Both commands and orders are closed variant sets: a Kind field selects the
// variant and the matching payload field carries its data. Dispatch is an
// exhaustive switch over the kind, never type assertion chains.
package command
