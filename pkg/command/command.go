package command

// Kind selects the variant of a Command.
type Kind string

const (
	// KindProxyConfiguration carries an Order mutating the routing tables.
	KindProxyConfiguration Kind = "PROXY_CONFIGURATION"
	// KindSaveState persists the supervisor state to a file path.
	KindSaveState Kind = "SAVE_STATE"
	// KindLoadState replaces the supervisor state from a file path.
	KindLoadState Kind = "LOAD_STATE"
	// KindDumpState returns the current state as a JSON document.
	KindDumpState Kind = "DUMP_STATE"
	// KindListWorkers returns the worker registry snapshot.
	KindListWorkers Kind = "LIST_WORKERS"
	// KindLaunchWorker starts a replacement worker process.
	KindLaunchWorker Kind = "LAUNCH_WORKER"
	// KindUpgradeMaster re-executes the supervising process in place.
	KindUpgradeMaster Kind = "UPGRADE_MASTER"
	// KindQuery reads a view of the configuration without mutating it.
	KindQuery Kind = "QUERY"
	// KindMetrics returns the per-worker metrics snapshot.
	KindMetrics Kind = "METRICS"
	// KindLoggingFilter changes the supervisor's logging filter.
	KindLoggingFilter Kind = "LOGGING_FILTER"
)

// Command is a single administrative request. ID is caller-generated; the
// caller owns uniqueness, and must never reuse an id while a prior command
// with that id is still in flight. WorkerID, when set, targets the command at
// one worker instead of the whole proxy.
type Command struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	WorkerID *uint32 `json:"worker_id,omitempty"`

	// Exactly one of the following is set, matching Kind.
	Order  *Order `json:"order,omitempty"`
	Path   string `json:"path,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Query  *Query `json:"query,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// QueryKind selects the variant of a Query.
type QueryKind string

const (
	// QueryApplications lists every configured application.
	QueryApplications QueryKind = "APPLICATIONS"
	// QueryApplication returns one application's configuration.
	QueryApplication QueryKind = "APPLICATION"
)

// Query is a read-only request against the supervisor's configuration.
type Query struct {
	Kind  QueryKind `json:"kind"`
	AppID string    `json:"app_id,omitempty"`
}

// ProxyConfiguration builds a command applying an order, optionally targeted
// at a single worker.
func ProxyConfiguration(id string, order Order, workerID *uint32) *Command {
	return &Command{ID: id, Kind: KindProxyConfiguration, Order: &order, WorkerID: workerID}
}

// SaveState builds a command persisting the state to path.
func SaveState(id, path string) *Command {
	return &Command{ID: id, Kind: KindSaveState, Path: path}
}

// LoadState builds a command loading the state from path.
func LoadState(id, path string) *Command {
	return &Command{ID: id, Kind: KindLoadState, Path: path}
}

// DumpState builds a command requesting the current state.
func DumpState(id string) *Command {
	return &Command{ID: id, Kind: KindDumpState}
}

// ListWorkers builds a command requesting the worker registry.
func ListWorkers(id string) *Command {
	return &Command{ID: id, Kind: KindListWorkers}
}

// LaunchWorker builds a command starting a replacement worker.
func LaunchWorker(id, tag string) *Command {
	return &Command{ID: id, Kind: KindLaunchWorker, Tag: tag}
}

// UpgradeMaster builds the master promotion command.
func UpgradeMaster(id string) *Command {
	return &Command{ID: id, Kind: KindUpgradeMaster}
}

// NewQuery builds a read-only query command.
func NewQuery(id string, q Query) *Command {
	return &Command{ID: id, Kind: KindQuery, Query: &q}
}

// Metrics builds a command requesting the metrics snapshot.
func Metrics(id string) *Command {
	return &Command{ID: id, Kind: KindMetrics}
}

// LoggingFilter builds a command changing the logging filter.
func LoggingFilter(id, filter string) *Command {
	return &Command{ID: id, Kind: KindLoggingFilter, Filter: filter}
}
