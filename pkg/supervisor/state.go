package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/backend"
	"mercator-hq/ganymede/pkg/cert"
	"mercator-hq/ganymede/pkg/command"
)

// backendEntry pairs an instance's declared configuration with its live
// connection-lifecycle record.
type backendEntry struct {
	instance command.Instance
	record   *backend.Backend
}

// State holds the live routing tables: applications, their fronts, their
// backend instances and the installed certificates. All methods are safe for
// concurrent use; the connection-acceptance path reads, the control channel
// writes.
type State struct {
	mu sync.RWMutex

	applications map[string]command.Application
	httpFronts   map[string][]command.HTTPFront
	httpsFronts  map[string][]command.HTTPSFront
	tcpFronts    map[string][]command.TCPFront
	backends     map[string][]*backendEntry
	certificates map[string]command.CertificateAndKey

	nextBackendID  uint32
	connectTimeout time.Duration
}

// NewState creates empty routing tables. connectTimeout bounds dial attempts
// on the backend records the tables create.
func NewState(connectTimeout time.Duration) *State {
	return &State{
		applications:   make(map[string]command.Application),
		httpFronts:     make(map[string][]command.HTTPFront),
		httpsFronts:    make(map[string][]command.HTTPSFront),
		tcpFronts:      make(map[string][]command.TCPFront),
		backends:       make(map[string][]*backendEntry),
		certificates:   make(map[string]command.CertificateAndKey),
		connectTimeout: connectTimeout,
	}
}

// ApplyOrder applies one configuration mutation. Stop, status and logging
// orders are not state mutations and are rejected here; the dispatcher routes
// them before reaching the tables.
func (s *State) ApplyOrder(order *command.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch order.Kind {
	case command.OrderAddApplication:
		if order.Application == nil {
			return fmt.Errorf("%s: missing application", order.Kind)
		}
		s.applications[order.Application.AppID] = *order.Application
		return nil

	case command.OrderRemoveApplication:
		if _, ok := s.applications[order.AppID]; !ok {
			return fmt.Errorf("unknown application %q", order.AppID)
		}
		delete(s.applications, order.AppID)
		delete(s.httpFronts, order.AppID)
		delete(s.httpsFronts, order.AppID)
		delete(s.tcpFronts, order.AppID)
		s.closeAppBackends(order.AppID)
		return nil

	case command.OrderAddHTTPFront:
		if order.HTTPFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.HTTPFront
		if err := s.requireApp(f.AppID); err != nil {
			return err
		}
		for _, existing := range s.httpFronts[f.AppID] {
			if existing == f {
				return nil
			}
		}
		s.httpFronts[f.AppID] = append(s.httpFronts[f.AppID], f)
		return nil

	case command.OrderRemoveHTTPFront:
		if order.HTTPFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.HTTPFront
		kept := s.httpFronts[f.AppID][:0]
		for _, existing := range s.httpFronts[f.AppID] {
			if existing != f {
				kept = append(kept, existing)
			}
		}
		s.httpFronts[f.AppID] = kept
		return nil

	case command.OrderAddHTTPSFront:
		if order.HTTPSFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.HTTPSFront
		if err := s.requireApp(f.AppID); err != nil {
			return err
		}
		for _, existing := range s.httpsFronts[f.AppID] {
			if existing.Hostname == f.Hostname && existing.PathBegin == f.PathBegin {
				return nil
			}
		}
		s.httpsFronts[f.AppID] = append(s.httpsFronts[f.AppID], f)
		return nil

	case command.OrderRemoveHTTPSFront:
		if order.HTTPSFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.HTTPSFront
		kept := s.httpsFronts[f.AppID][:0]
		for _, existing := range s.httpsFronts[f.AppID] {
			if existing.Hostname != f.Hostname || existing.PathBegin != f.PathBegin {
				kept = append(kept, existing)
			}
		}
		s.httpsFronts[f.AppID] = kept
		return nil

	case command.OrderAddTCPFront:
		if order.TCPFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.TCPFront
		if err := s.requireApp(f.AppID); err != nil {
			return err
		}
		for _, existing := range s.tcpFronts[f.AppID] {
			if existing == f {
				return nil
			}
		}
		s.tcpFronts[f.AppID] = append(s.tcpFronts[f.AppID], f)
		return nil

	case command.OrderRemoveTCPFront:
		if order.TCPFront == nil {
			return fmt.Errorf("%s: missing front", order.Kind)
		}
		f := *order.TCPFront
		kept := s.tcpFronts[f.AppID][:0]
		for _, existing := range s.tcpFronts[f.AppID] {
			if existing != f {
				kept = append(kept, existing)
			}
		}
		s.tcpFronts[f.AppID] = kept
		return nil

	case command.OrderAddInstance:
		if order.Instance == nil {
			return fmt.Errorf("%s: missing instance", order.Kind)
		}
		return s.addInstance(*order.Instance)

	case command.OrderRemoveInstance:
		if order.Instance == nil {
			return fmt.Errorf("%s: missing instance", order.Kind)
		}
		return s.removeInstance(*order.Instance)

	case command.OrderAddCertificate:
		if order.Certificate == nil {
			return fmt.Errorf("%s: missing certificate", order.Kind)
		}
		fp, err := cert.CalculateFingerprint([]byte(order.Certificate.Certificate))
		if err != nil {
			return fmt.Errorf("could not fingerprint certificate: %w", err)
		}
		s.certificates[fp.String()] = *order.Certificate
		return nil

	case command.OrderRemoveCertificate:
		key := order.Fingerprint.String()
		if _, ok := s.certificates[key]; !ok {
			return fmt.Errorf("unknown certificate %s", key)
		}
		delete(s.certificates, key)
		return nil

	default:
		return fmt.Errorf("order %s does not mutate the routing tables", order.Kind)
	}
}

// requireApp is called with s.mu held.
func (s *State) requireApp(appID string) error {
	if _, ok := s.applications[appID]; !ok {
		return fmt.Errorf("unknown application %q", appID)
	}
	return nil
}

// addInstance is called with s.mu held.
func (s *State) addInstance(instance command.Instance) error {
	if err := s.requireApp(instance.AppID); err != nil {
		return err
	}
	for _, entry := range s.backends[instance.AppID] {
		if entry.instance.InstanceID == instance.InstanceID &&
			entry.record.Status() != backend.StatusClosing {
			return fmt.Errorf("instance %q already registered for application %q",
				instance.InstanceID, instance.AppID)
		}
	}

	addr := fmt.Sprintf("%s:%d", instance.IPAddress, instance.Port)
	record := backend.New(instance.InstanceID, addr, s.nextBackendID,
		backend.WithConnectTimeout(s.connectTimeout))
	s.nextBackendID++

	s.backends[instance.AppID] = append(s.backends[instance.AppID], &backendEntry{
		instance: instance,
		record:   record,
	})
	return nil
}

// removeInstance marks the instance's record Closing rather than deleting it,
// so in-flight connections finish. The entry leaves the table immediately
// only when it has no connections to drain; otherwise ConnectionClosed prunes
// it once the record reaches Closed. Called with s.mu held.
func (s *State) removeInstance(instance command.Instance) error {
	entries := s.backends[instance.AppID]
	for i, entry := range entries {
		if entry.instance.InstanceID != instance.InstanceID {
			continue
		}
		entry.record.SetClosing()
		if entry.record.ActiveConnections() == 0 {
			s.backends[instance.AppID] = append(entries[:i], entries[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("unknown instance %q for application %q",
		instance.InstanceID, instance.AppID)
}

// closeAppBackends is called with s.mu held.
func (s *State) closeAppBackends(appID string) {
	var draining []*backendEntry
	for _, entry := range s.backends[appID] {
		entry.record.SetClosing()
		if entry.record.ActiveConnections() > 0 {
			draining = append(draining, entry)
		}
	}
	if len(draining) == 0 {
		delete(s.backends, appID)
		return
	}
	s.backends[appID] = draining
}

// PickBackend returns a backend of appID that may accept a connection now, or
// ErrNoBackendAvailable when every record is draining or blocked by its retry
// policy.
func (s *State) PickBackend(appID string) (*backend.Backend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.backends[appID] {
		if entry.record.CanOpen() {
			return entry.record, nil
		}
	}
	return nil, backend.ErrNoBackendAvailable
}

// ConnectionClosed records a closed connection on the named instance and
// prunes its entry once the record reaches Closed.
func (s *State) ConnectionClosed(appID, instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.backends[appID]
	for i, entry := range entries {
		if entry.instance.InstanceID != instanceID {
			continue
		}
		entry.record.DecConnections()
		if entry.record.Status() == backend.StatusClosed {
			s.backends[appID] = append(entries[:i], entries[i+1:]...)
		}
		return
	}
}

// stateSnapshot is the serialized form of the routing tables. Live lifecycle
// state (connection counts, retry policies) is deliberately not persisted: a
// loaded state starts every instance fresh.
type stateSnapshot struct {
	Applications []command.Application       `json:"applications"`
	HTTPFronts   []command.HTTPFront         `json:"http_fronts"`
	HTTPSFronts  []command.HTTPSFront        `json:"https_fronts"`
	TCPFronts    []command.TCPFront          `json:"tcp_fronts"`
	Instances    []command.Instance          `json:"instances"`
	Certificates []command.CertificateAndKey `json:"certificates"`
}

// snapshot is called with s.mu held (read or write).
func (s *State) snapshot() *stateSnapshot {
	snap := &stateSnapshot{}

	appIDs := make([]string, 0, len(s.applications))
	for id := range s.applications {
		appIDs = append(appIDs, id)
	}
	sort.Strings(appIDs)
	for _, id := range appIDs {
		snap.Applications = append(snap.Applications, s.applications[id])
		snap.HTTPFronts = append(snap.HTTPFronts, s.httpFronts[id]...)
		snap.HTTPSFronts = append(snap.HTTPSFronts, s.httpsFronts[id]...)
		snap.TCPFronts = append(snap.TCPFronts, s.tcpFronts[id]...)
		for _, entry := range s.backends[id] {
			if entry.record.Status() == backend.StatusNormal {
				snap.Instances = append(snap.Instances, entry.instance)
			}
		}
	}

	fps := make([]string, 0, len(s.certificates))
	for fp := range s.certificates {
		fps = append(fps, fp)
	}
	sort.Strings(fps)
	for _, fp := range fps {
		snap.Certificates = append(snap.Certificates, s.certificates[fp])
	}
	return snap
}

// Dump returns the current state as a JSON document.
func (s *State) Dump() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := json.Marshal(s.snapshot())
	if err != nil {
		return nil, fmt.Errorf("could not serialize state: %w", err)
	}
	return b, nil
}

// Save writes the current state to path, atomically via a rename.
func (s *State) Save(path string) error {
	s.mu.RLock()
	b, err := json.MarshalIndent(s.snapshot(), "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("could not serialize state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not move state file into place: %w", err)
	}
	return nil
}

// Load replaces the routing tables with the snapshot stored at path. Draining
// records are discarded along with everything else; callers save first if
// that matters.
func (s *State) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read state file: %w", err)
	}

	var snap stateSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("could not parse state file %q: %w", path, err)
	}

	fresh := NewState(s.connectTimeout)
	orders := snap.orders()
	for i := range orders {
		if err := fresh.ApplyOrder(&orders[i]); err != nil {
			return fmt.Errorf("state file %q entry %d: %w", path, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications = fresh.applications
	s.httpFronts = fresh.httpFronts
	s.httpsFronts = fresh.httpsFronts
	s.tcpFronts = fresh.tcpFronts
	s.backends = fresh.backends
	s.certificates = fresh.certificates
	s.nextBackendID = fresh.nextBackendID
	return nil
}

// orders rebuilds the snapshot as the order sequence producing it.
func (snap *stateSnapshot) orders() []command.Order {
	var orders []command.Order
	for _, app := range snap.Applications {
		orders = append(orders, command.AddApplication(app))
	}
	for _, f := range snap.HTTPFronts {
		orders = append(orders, command.AddHTTPFront(f))
	}
	for _, f := range snap.HTTPSFronts {
		orders = append(orders, command.AddHTTPSFront(f))
	}
	for _, f := range snap.TCPFronts {
		orders = append(orders, command.AddTCPFront(f))
	}
	for _, inst := range snap.Instances {
		orders = append(orders, command.AddInstance(inst))
	}
	for _, c := range snap.Certificates {
		orders = append(orders, command.AddCertificate(c))
	}
	return orders
}

// ApplicationView is the answer payload for application queries.
type ApplicationView struct {
	Application command.Application  `json:"application"`
	HTTPFronts  []command.HTTPFront  `json:"http_fronts,omitempty"`
	HTTPSFronts []command.HTTPSFront `json:"https_fronts,omitempty"`
	TCPFronts   []command.TCPFront   `json:"tcp_fronts,omitempty"`
	Instances   []command.Instance   `json:"instances,omitempty"`
}

// view is called with s.mu held.
func (s *State) view(appID string) ApplicationView {
	v := ApplicationView{
		Application: s.applications[appID],
		HTTPFronts:  s.httpFronts[appID],
		HTTPSFronts: s.httpsFronts[appID],
		TCPFronts:   s.tcpFronts[appID],
	}
	for _, entry := range s.backends[appID] {
		v.Instances = append(v.Instances, entry.instance)
	}
	return v
}

// Query answers a read-only configuration query.
func (s *State) Query(q *command.Query) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch q.Kind {
	case command.QueryApplications:
		appIDs := make([]string, 0, len(s.applications))
		for id := range s.applications {
			appIDs = append(appIDs, id)
		}
		sort.Strings(appIDs)

		views := make([]ApplicationView, 0, len(appIDs))
		for _, id := range appIDs {
			views = append(views, s.view(id))
		}
		b, err := json.Marshal(views)
		if err != nil {
			return nil, fmt.Errorf("could not serialize applications: %w", err)
		}
		return b, nil

	case command.QueryApplication:
		if _, ok := s.applications[q.AppID]; !ok {
			return nil, fmt.Errorf("unknown application %q", q.AppID)
		}
		b, err := json.Marshal(s.view(q.AppID))
		if err != nil {
			return nil, fmt.Errorf("could not serialize application: %w", err)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown query kind %q", q.Kind)
	}
}
