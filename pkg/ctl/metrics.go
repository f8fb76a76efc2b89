package ctl

import (
	"fmt"
	"sort"
	"strconv"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/command"
)

// MetricsReport is the reshaped cross-worker view of one metrics snapshot.
// Master is nil when the snapshot carried no master entry. All values are
// passed through from the workers unchanged; nothing is recomputed here.
type MetricsReport struct {
	Master       *cli.Table
	Proxy        *cli.Table
	Applications *cli.Table
	Backends     *cli.Table
}

// Metrics requests one snapshot and reshapes it into the four report tables:
// master-process counters, cross-worker proxy counters (one row per counter
// key, one column per worker), and the transposed application and backend
// tables where each worker contributes a fixed-width block of columns per
// metric key (8 percentile columns for applications, bytes out/in plus the 8
// for backends).
func (c *Client) Metrics() (*MetricsReport, error) {
	id := command.GenerateID()
	ans, err := c.send(command.Metrics(id))
	if err != nil {
		return nil, fmt.Errorf("could not get metrics: %w", err)
	}
	if ans.Data == nil || ans.Data.Metrics == nil {
		return nil, fmt.Errorf("metrics answer was empty")
	}

	data := ans.Data.Metrics
	report := &MetricsReport{}

	if master, ok := data[command.MasterTag]; ok {
		report.Master = masterTable(master)
	}

	var tags []string
	for tag := range data {
		if tag != command.MasterTag {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	report.Proxy = proxyTable(tags, data)
	report.Applications = applicationTable(tags, data)
	report.Backends = backendTable(tags, data)
	return report, nil
}

func masterTable(m command.WorkerMetrics) *cli.Table {
	table := cli.NewTable("key", "value")
	for _, key := range sortedMapKeys(m.Proxy) {
		table.AddRow(key, strconv.FormatInt(m.Proxy[key], 10))
	}
	return table
}

func proxyTable(tags []string, data map[string]command.WorkerMetrics) *cli.Table {
	header := append([]string{"key"}, tags...)
	table := cli.NewTable(header...)

	keys := make(map[string]bool)
	for _, tag := range tags {
		for key := range data[tag].Proxy {
			keys[key] = true
		}
	}

	for _, key := range sortedSetKeys(keys) {
		row := []string{key}
		for _, tag := range tags {
			if value, ok := data[tag].Proxy[key]; ok {
				row = append(row, strconv.FormatInt(value, 10))
			} else {
				row = append(row, "")
			}
		}
		table.AddRow(row...)
	}
	return table
}

func applicationTable(tags []string, data map[string]command.WorkerMetrics) *cli.Table {
	header := []string{"application"}
	for _, tag := range tags {
		for _, suffix := range command.PercentileHeaders {
			header = append(header, tag+" "+suffix)
		}
	}
	table := cli.NewTable(header...)

	keys := make(map[string]bool)
	for _, tag := range tags {
		for key := range data[tag].Applications {
			keys[key] = true
		}
	}

	for _, key := range sortedSetKeys(keys) {
		row := []string{key}
		for _, tag := range tags {
			if p, ok := data[tag].Applications[key]; ok {
				row = appendFields(row, p.Fields())
			} else {
				row = appendBlanks(row, len(command.PercentileHeaders))
			}
		}
		table.AddRow(row...)
	}
	return table
}

func backendTable(tags []string, data map[string]command.WorkerMetrics) *cli.Table {
	header := []string{"backend"}
	for _, tag := range tags {
		header = append(header, tag+" bytes out", tag+" bytes in")
		for _, suffix := range command.PercentileHeaders {
			header = append(header, tag+" "+suffix)
		}
	}
	table := cli.NewTable(header...)

	keys := make(map[string]bool)
	for _, tag := range tags {
		for key := range data[tag].Backends {
			keys[key] = true
		}
	}

	for _, key := range sortedSetKeys(keys) {
		row := []string{key}
		for _, tag := range tags {
			if b, ok := data[tag].Backends[key]; ok {
				row = append(row,
					strconv.FormatUint(b.BytesOut, 10),
					strconv.FormatUint(b.BytesIn, 10))
				row = appendFields(row, b.Percentiles.Fields())
			} else {
				row = appendBlanks(row, 2+len(command.PercentileHeaders))
			}
		}
		table.AddRow(row...)
	}
	return table
}

func appendFields(row []string, fields []uint64) []string {
	for _, f := range fields {
		row = append(row, strconv.FormatUint(f, 10))
	}
	return row
}

func appendBlanks(row []string, n int) []string {
	for i := 0; i < n; i++ {
		row = append(row, "")
	}
	return row
}

func sortedMapKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSetKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
