package command

import "mercator-hq/ganymede/pkg/cert"

// OrderKind selects the variant of an Order.
type OrderKind string

const (
	OrderAddApplication    OrderKind = "ADD_APPLICATION"
	OrderRemoveApplication OrderKind = "REMOVE_APPLICATION"
	OrderAddHTTPFront      OrderKind = "ADD_HTTP_FRONT"
	OrderRemoveHTTPFront   OrderKind = "REMOVE_HTTP_FRONT"
	OrderAddHTTPSFront     OrderKind = "ADD_HTTPS_FRONT"
	OrderRemoveHTTPSFront  OrderKind = "REMOVE_HTTPS_FRONT"
	OrderAddTCPFront       OrderKind = "ADD_TCP_FRONT"
	OrderRemoveTCPFront    OrderKind = "REMOVE_TCP_FRONT"
	OrderAddInstance       OrderKind = "ADD_INSTANCE"
	OrderRemoveInstance    OrderKind = "REMOVE_INSTANCE"
	OrderAddCertificate    OrderKind = "ADD_CERTIFICATE"
	OrderRemoveCertificate OrderKind = "REMOVE_CERTIFICATE"
	OrderSoftStop          OrderKind = "SOFT_STOP"
	OrderHardStop          OrderKind = "HARD_STOP"
	OrderStatus            OrderKind = "STATUS"
	OrderLogging           OrderKind = "LOGGING"
)

// Application is a named routing target comprising one or more instances.
type Application struct {
	AppID         string `json:"app_id"`
	StickySession bool   `json:"sticky_session"`
}

// HTTPFront maps a hostname/path prefix to an application over plain HTTP.
type HTTPFront struct {
	AppID     string `json:"app_id"`
	Hostname  string `json:"hostname"`
	PathBegin string `json:"path_begin"`
}

// HTTPSFront maps a hostname/path prefix to an application over TLS; the
// fingerprint identifies the certificate serving the front.
type HTTPSFront struct {
	AppID       string           `json:"app_id"`
	Hostname    string           `json:"hostname"`
	PathBegin   string           `json:"path_begin"`
	Fingerprint cert.Fingerprint `json:"fingerprint"`
}

// TCPFront maps a listen address to an application at the TCP level.
type TCPFront struct {
	AppID     string `json:"app_id"`
	IPAddress string `json:"ip_address"`
	Port      uint16 `json:"port"`
}

// Instance is one upstream server serving an application.
type Instance struct {
	AppID      string `json:"app_id"`
	InstanceID string `json:"instance_id"`
	IPAddress  string `json:"ip_address"`
	Port       uint16 `json:"port"`
}

// CertificateAndKey bundles a certificate, its ordered chain and private key,
// all PEM-encoded.
type CertificateAndKey struct {
	Certificate      string   `json:"certificate"`
	CertificateChain []string `json:"certificate_chain"`
	Key              string   `json:"key"`
}

// Order is a single configuration mutation applied to the live routing and
// backend tables. Orders are immutable value objects; equality is structural.
type Order struct {
	Kind OrderKind `json:"kind"`

	Application *Application       `json:"application,omitempty"`
	AppID       string             `json:"app_id,omitempty"`
	HTTPFront   *HTTPFront         `json:"http_front,omitempty"`
	HTTPSFront  *HTTPSFront        `json:"https_front,omitempty"`
	TCPFront    *TCPFront          `json:"tcp_front,omitempty"`
	Instance    *Instance          `json:"instance,omitempty"`
	Certificate *CertificateAndKey `json:"certificate,omitempty"`
	Fingerprint cert.Fingerprint   `json:"fingerprint,omitempty"`
	Filter      string             `json:"filter,omitempty"`
}

// AddApplication builds the order registering an application.
func AddApplication(app Application) Order {
	return Order{Kind: OrderAddApplication, Application: &app}
}

// RemoveApplication builds the order dropping an application and everything
// routed to it.
func RemoveApplication(appID string) Order {
	return Order{Kind: OrderRemoveApplication, AppID: appID}
}

// AddHTTPFront builds the order adding a plain HTTP front.
func AddHTTPFront(front HTTPFront) Order {
	return Order{Kind: OrderAddHTTPFront, HTTPFront: &front}
}

// RemoveHTTPFront builds the order removing a plain HTTP front.
func RemoveHTTPFront(front HTTPFront) Order {
	return Order{Kind: OrderRemoveHTTPFront, HTTPFront: &front}
}

// AddHTTPSFront builds the order adding a TLS front.
func AddHTTPSFront(front HTTPSFront) Order {
	return Order{Kind: OrderAddHTTPSFront, HTTPSFront: &front}
}

// RemoveHTTPSFront builds the order removing a TLS front.
func RemoveHTTPSFront(front HTTPSFront) Order {
	return Order{Kind: OrderRemoveHTTPSFront, HTTPSFront: &front}
}

// AddTCPFront builds the order adding a TCP front.
func AddTCPFront(front TCPFront) Order {
	return Order{Kind: OrderAddTCPFront, TCPFront: &front}
}

// RemoveTCPFront builds the order removing a TCP front.
func RemoveTCPFront(front TCPFront) Order {
	return Order{Kind: OrderRemoveTCPFront, TCPFront: &front}
}

// AddInstance builds the order registering a backend instance.
func AddInstance(instance Instance) Order {
	return Order{Kind: OrderAddInstance, Instance: &instance}
}

// RemoveInstance builds the order draining and removing a backend instance.
func RemoveInstance(instance Instance) Order {
	return Order{Kind: OrderRemoveInstance, Instance: &instance}
}

// AddCertificate builds the order installing a certificate bundle.
func AddCertificate(c CertificateAndKey) Order {
	return Order{Kind: OrderAddCertificate, Certificate: &c}
}

// RemoveCertificate builds the order removing the certificate with the given
// fingerprint.
func RemoveCertificate(fp cert.Fingerprint) Order {
	return Order{Kind: OrderRemoveCertificate, Fingerprint: fp}
}

// SoftStop builds the order asking workers to stop accepting new connections
// and exit once existing sessions drain.
func SoftStop() Order {
	return Order{Kind: OrderSoftStop}
}

// HardStop builds the order asking workers to exit immediately.
func HardStop() Order {
	return Order{Kind: OrderHardStop}
}

// Status builds the order probing one worker's liveness.
func Status() Order {
	return Order{Kind: OrderStatus}
}

// Logging builds the order changing a worker's logging filter.
func Logging(filter string) Order {
	return Order{Kind: OrderLogging, Filter: filter}
}
