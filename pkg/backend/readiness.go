package backend

// Readiness is the set of I/O directions a session currently needs serviced:
// the cross product of {front none/read/write/read-write} and {back same}.
// The event loop reads it every iteration to arm per-socket interest; keeping
// the combinations explicit makes every legal state testable and rules out
// spurious wakeups from recomputing interest ad hoc.
//
// Sessions frequently need asymmetric interest, e.g. draining the front
// buffer while waiting to read more from the back: FrontWriteBackRead.
type Readiness uint8

const (
	// FrontRead is the front-socket read-interest bit.
	FrontRead Readiness = 1 << iota
	// FrontWrite is the front-socket write-interest bit.
	FrontWrite
	// BackRead is the back-socket read-interest bit.
	BackRead
	// BackWrite is the back-socket write-interest bit.
	BackWrite
)

// The sixteen legal interest states.
const (
	FrontNoneBackNone           Readiness = 0
	FrontReadBackNone                     = FrontRead
	FrontWriteBackNone                    = FrontWrite
	FrontReadWriteBackNone                = FrontRead | FrontWrite
	FrontNoneBackRead                     = BackRead
	FrontReadBackRead                     = FrontRead | BackRead
	FrontWriteBackRead                    = FrontWrite | BackRead
	FrontReadWriteBackRead                = FrontRead | FrontWrite | BackRead
	FrontNoneBackWrite                    = BackWrite
	FrontReadBackWrite                    = FrontRead | BackWrite
	FrontWriteBackWrite                   = FrontWrite | BackWrite
	FrontReadWriteBackWrite               = FrontRead | FrontWrite | BackWrite
	FrontNoneBackReadWrite                = BackRead | BackWrite
	FrontReadBackReadWrite                = FrontRead | BackRead | BackWrite
	FrontWriteBackReadWrite               = FrontWrite | BackRead | BackWrite
	FrontReadWriteBackReadWrite           = FrontRead | FrontWrite | BackRead | BackWrite
)

// FrontReadable reports whether the front socket needs read interest.
func (r Readiness) FrontReadable() bool { return r&FrontRead != 0 }

// FrontWritable reports whether the front socket needs write interest.
func (r Readiness) FrontWritable() bool { return r&FrontWrite != 0 }

// BackReadable reports whether the back socket needs read interest.
func (r Readiness) BackReadable() bool { return r&BackRead != 0 }

// BackWritable reports whether the back socket needs write interest.
func (r Readiness) BackWritable() bool { return r&BackWrite != 0 }
