package ctl

import (
	"encoding/json"
	"errors"
	"fmt"

	"mercator-hq/ganymede/pkg/cert"
	"mercator-hq/ganymede/pkg/channel"
	"mercator-hq/ganymede/pkg/command"
)

// sendOrder applies one configuration order and waits for its terminal
// answer. Shared by every single-shot configuration operation.
func (c *Client) sendOrder(order command.Order) error {
	id := command.GenerateID()
	_, err := c.send(command.ProxyConfiguration(id, order, nil))
	return err
}

// SaveState persists the supervisor state to path on the supervisor's host.
func (c *Client) SaveState(path string) error {
	id := command.GenerateID()
	ans, err := c.send(command.SaveState(id, path))
	if err != nil {
		return fmt.Errorf("could not save proxy state: %w", err)
	}
	fmt.Fprintln(c.out, ans.Message)
	return nil
}

// LoadState replaces the supervisor state from path.
func (c *Client) LoadState(path string) error {
	id := command.GenerateID()
	if _, err := c.send(command.LoadState(id, path)); err != nil {
		return fmt.Errorf("could not load proxy state: %w", err)
	}
	fmt.Fprintf(c.out, "Proxy state loaded successfully from %s\n", path)
	return nil
}

// DumpState prints the current supervisor state as indented JSON.
func (c *Client) DumpState() error {
	id := command.GenerateID()
	ans, err := c.send(command.DumpState(id))
	if err != nil {
		return fmt.Errorf("could not dump proxy state: %w", err)
	}
	if ans.Data == nil || len(ans.Data.State) == 0 {
		return fmt.Errorf("state dump was empty")
	}

	var buf []byte
	var pretty map[string]any
	if err := json.Unmarshal(ans.Data.State, &pretty); err == nil {
		buf, _ = json.MarshalIndent(pretty, "", "  ")
	} else {
		buf = ans.Data.State
	}
	fmt.Fprintln(c.out, string(buf))
	return nil
}

// AddApplication registers an application.
func (c *Client) AddApplication(appID string, stickySession bool) error {
	return c.sendOrder(command.AddApplication(command.Application{
		AppID:         appID,
		StickySession: stickySession,
	}))
}

// RemoveApplication drops an application and everything routed to it.
func (c *Client) RemoveApplication(appID string) error {
	return c.sendOrder(command.RemoveApplication(appID))
}

// AddFrontend adds an HTTP front, or an HTTPS front when certificatePath is
// set: the certificate file is fingerprinted first and a fingerprint failure
// short-circuits without contacting the channel.
func (c *Client) AddFrontend(appID, hostname, pathBegin, certificatePath string) error {
	if certificatePath == "" {
		return c.sendOrder(command.AddHTTPFront(command.HTTPFront{
			AppID:     appID,
			Hostname:  hostname,
			PathBegin: pathBegin,
		}))
	}

	fp, err := fingerprintFile(certificatePath)
	if err != nil {
		return err
	}
	return c.sendOrder(command.AddHTTPSFront(command.HTTPSFront{
		AppID:       appID,
		Hostname:    hostname,
		PathBegin:   pathBegin,
		Fingerprint: fp,
	}))
}

// RemoveFrontend removes the HTTP front, or the HTTPS front matching the
// certificate at certificatePath when set.
func (c *Client) RemoveFrontend(appID, hostname, pathBegin, certificatePath string) error {
	if certificatePath == "" {
		return c.sendOrder(command.RemoveHTTPFront(command.HTTPFront{
			AppID:     appID,
			Hostname:  hostname,
			PathBegin: pathBegin,
		}))
	}

	fp, err := fingerprintFile(certificatePath)
	if err != nil {
		return err
	}
	return c.sendOrder(command.RemoveHTTPSFront(command.HTTPSFront{
		AppID:       appID,
		Hostname:    hostname,
		PathBegin:   pathBegin,
		Fingerprint: fp,
	}))
}

// AddTCPFront adds a TCP listen front for an application.
func (c *Client) AddTCPFront(appID, ipAddress string, port uint16) error {
	return c.sendOrder(command.AddTCPFront(command.TCPFront{
		AppID:     appID,
		IPAddress: ipAddress,
		Port:      port,
	}))
}

// RemoveTCPFront removes a TCP listen front.
func (c *Client) RemoveTCPFront(appID, ipAddress string, port uint16) error {
	return c.sendOrder(command.RemoveTCPFront(command.TCPFront{
		AppID:     appID,
		IPAddress: ipAddress,
		Port:      port,
	}))
}

// AddBackend registers a backend instance for an application.
func (c *Client) AddBackend(appID, instanceID, ip string, port uint16) error {
	return c.sendOrder(command.AddInstance(command.Instance{
		AppID:      appID,
		InstanceID: instanceID,
		IPAddress:  ip,
		Port:       port,
	}))
}

// RemoveBackend drains and removes a backend instance.
func (c *Client) RemoveBackend(appID, instanceID, ip string, port uint16) error {
	return c.sendOrder(command.RemoveInstance(command.Instance{
		AppID:      appID,
		InstanceID: instanceID,
		IPAddress:  ip,
		Port:       port,
	}))
}

// AddCertificate installs a certificate: the certificate, its chain (split
// into individual certificates, leaf first) and the private key are all read
// before any command is sent.
func (c *Client) AddCertificate(certificatePath, chainPath, keyPath string) error {
	certificate, err := cert.LoadFile(certificatePath)
	if err != nil {
		return fmt.Errorf("could not load certificate: %w", err)
	}
	chainData, err := cert.LoadFile(chainPath)
	if err != nil {
		return fmt.Errorf("could not load certificate chain: %w", err)
	}
	key, err := cert.LoadFile(keyPath)
	if err != nil {
		return fmt.Errorf("could not load key: %w", err)
	}

	return c.sendOrder(command.AddCertificate(command.CertificateAndKey{
		Certificate:      certificate,
		CertificateChain: cert.SplitCertificateChain(chainData),
		Key:              key,
	}))
}

// RemoveCertificate removes the certificate matching the file at
// certificatePath, identified by fingerprint.
func (c *Client) RemoveCertificate(certificatePath string) error {
	fp, err := fingerprintFile(certificatePath)
	if err != nil {
		return err
	}
	return c.sendOrder(command.RemoveCertificate(fp))
}

// QueryApplications prints the configuration of one application, or of all
// applications when appID is empty.
func (c *Client) QueryApplications(appID string) error {
	q := command.Query{Kind: command.QueryApplications}
	if appID != "" {
		q = command.Query{Kind: command.QueryApplication, AppID: appID}
	}

	id := command.GenerateID()
	ans, err := c.send(command.NewQuery(id, q))
	if err != nil {
		return fmt.Errorf("could not query proxy state: %w", err)
	}

	fmt.Fprintf(c.out, "Proxy config answer: %s\n", ans.Message)
	if ans.Data != nil && len(ans.Data.Query) > 0 {
		var pretty any
		if err := json.Unmarshal(ans.Data.Query, &pretty); err == nil {
			buf, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Fprintln(c.out, string(buf))
		}
	}
	return nil
}

// LoggingFilter changes the supervisor's logging filter.
func (c *Client) LoggingFilter(filter string) error {
	id := command.GenerateID()
	_, err := c.send(command.LoggingFilter(id, filter))
	return err
}

// SoftStop asks the proxy to stop accepting new connections and exit once
// existing sessions drain, waiting for the terminal answer.
func (c *Client) SoftStop() error {
	fmt.Fprintln(c.out, "shutting down proxy")
	return c.sendOrder(command.SoftStop())
}

// HardStop asks the proxy to exit immediately. Answers for other in-flight
// ids may still be queued on the channel; they are logged and discarded while
// waiting for the matching terminal answer.
func (c *Client) HardStop() error {
	fmt.Fprintln(c.out, "shutting down proxy")
	id := command.GenerateID()
	if err := c.ch.WriteMessage(command.ProxyConfiguration(id, command.HardStop(), nil)); err != nil {
		return err
	}

	for {
		ans, err := c.ch.ReadMessage()
		if err != nil {
			if errors.Is(err, channel.ErrClosed) {
				// Expected: a hard stop may tear the channel down before the
				// answer makes it out.
				return nil
			}
			return err
		}
		if ans.ID != id {
			c.logger.Warn("discarding late answer", "id", ans.ID, "status", ans.Status)
			continue
		}
		switch ans.Status {
		case command.StatusProcessing:
			c.logger.Info("proxy is processing", "message", ans.Message)
		case command.StatusError:
			return &AnswerError{ID: id, Message: ans.Message}
		case command.StatusOk:
			fmt.Fprintf(c.out, "Proxy shut down: %s\n", ans.Message)
			return nil
		}
	}
}

func fingerprintFile(path string) (cert.Fingerprint, error) {
	data, err := cert.LoadFileBytes(path)
	if err != nil {
		return nil, fmt.Errorf("could not load certificate file: %w", err)
	}
	fp, err := cert.CalculateFingerprint(data)
	if err != nil {
		return nil, fmt.Errorf("could not calculate fingerprint for certificate: %w", err)
	}
	return fp, nil
}
