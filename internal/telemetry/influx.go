// Package telemetry records command cycles in InfluxDB.
package telemetry

import (
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/session"
)

// Measurement is the InfluxDB measurement name for axis moves.
const Measurement = "axis_move"

// Config selects the InfluxDB 2 bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Recorder writes one point per session event using the non-blocking write
// API, so it is safe to use as a session observer.
type Recorder struct {
	client   influxdb2.Client
	writeApi api.WriteApi
	done     chan struct{}
}

// NewRecorder connects the write API and starts logging write errors.
func NewRecorder(cfg Config) *Recorder {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeApi := client.WriteApi(cfg.Org, cfg.Bucket)
	r := &Recorder{
		client:   client,
		writeApi: writeApi,
		done:     make(chan struct{}),
	}
	errorsCh := writeApi.Errors()
	go func() {
		for {
			select {
			case err := <-errorsCh:
				debug.Error(err)
			case <-r.done:
				return
			}
		}
	}()
	debug.Info("Telemetry enabled: %s (%s/%s)", cfg.URL, cfg.Org, cfg.Bucket)
	return r
}

// Observe implements session.Observer.
func (r *Recorder) Observe(e session.Event) {
	tags, fields := PointData(e)
	r.writeApi.WritePoint(influxdb2.NewPoint(Measurement, tags, fields, e.Time))
}

// Close flushes pending points and releases the client.
func (r *Recorder) Close() {
	r.writeApi.Flush()
	close(r.done)
	r.client.Close()
}

// PointData returns the tags and fields recorded for e.
func PointData(e session.Event) (map[string]string, map[string]interface{}) {
	status := e.Outcome.Status.String()
	if e.Err != nil {
		status = "error"
		if session.IsCommandError(e.Err) {
			status = "rejected"
		}
	}
	tags := map[string]string{
		"status": status,
		"mode":   e.Outcome.Request.Mode.String(),
		"source": e.Source,
	}
	fields := map[string]interface{}{
		"id":        e.ID,
		"position":  e.Outcome.Position,
		"target":    e.Outcome.Target,
		"steps":     e.Outcome.Steps,
		"requested": e.Outcome.Request.Value,
	}
	if e.Input != "" {
		fields["input"] = e.Input
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return tags, fields
}

var _ session.Observer = (*Recorder)(nil)
