// Package ctl implements the administrative client driving the supervisor
// over the control channel: single-shot configuration commands, the status
// fan-out with bounded wait, the four-phase zero-downtime upgrade, and the
// metrics report reshaping.
//
// Correlation is strictly by answer id, never by arrival order: the channel
// gives no ordering guarantee across distinct in-flight ids. Single-shot
// operations treat a mismatched id as fatal; fan-out operations tolerate late
// answers for abandoned ids by logging and discarding them.
package ctl
