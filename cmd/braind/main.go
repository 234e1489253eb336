package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/brain.go/pkg/boot"
	"github.com/robotalks/brain.go/pkg/device"
	"github.com/robotalks/brain.go/pkg/device/link"
	"github.com/robotalks/brain.go/pkg/telemetry"
	wsrw "github.com/robotalks/brain.go/pkg/telemetry/websocket"
)

var (
	mqttURL    = "mqtt://localhost:1883/"
	listenAddr = ""
)

func init() {
	if val := os.Getenv("BRAIN_MQTT_URL"); val != "" {
		mqttURL = val
	}
	boot.SetupFlags()
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Websocket listen address for dashboards")
}

func main() {
	flag.Parse()

	runner := boot.NewRunner().HandleSignals()
	b := boot.NewConfig().MustBoot(runner.Context)

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exitf("bad MQTT URL: %v", err)
	}
	q.TopicPrefix += telemetry.BrainPrefix(b.ID)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		glog.Exitf("MQTT connect failed: %v", err)
	}
	defer q.Close()

	spawnLinks(runner, b)

	runner.Go(
		boot.NamedRun("telemetry", telemetry.NewPublisher(q, b.Registry, telemetry.Meta{ID: b.ID})),
		boot.NamedRun("sched", b),
	)
	if listenAddr != "" {
		runner.Go(boot.NamedRun("dashboard", boot.RunFunc(func(ctx context.Context) error {
			return serveDashboard(ctx, b.Registry)
		})))
	}
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

// cmdStatus asks a coprocessor for its firmware status word.
const cmdStatus = 0x02

// spawnLinks starts a frame link task on every configured serial
// port, with a companion monitor consuming coprocessor events and
// querying status after each sync.
func spawnLinks(runner *boot.Runner, b *boot.Brain) {
	ctx := runner.Context
	records, err := b.Registry.Snapshot(ctx)
	if err != nil {
		glog.Exitf("registry snapshot failed: %v", err)
	}
	for _, rec := range records {
		if rec.Adi || rec.Type != device.TypeSerial {
			continue
		}
		dev, err := b.Registry.Device(ctx, device.SmartPort(rec.Port))
		if err != nil {
			glog.Exitf("port %d: %v", rec.Port, err)
		}
		port := dev.(*device.SerialPort)
		client := link.NewClient(link.NewLink(port))
		b.Go(fmt.Sprintf("link-%d", rec.Port), client.Run)
		runner.Go(boot.NamedRun(fmt.Sprintf("coproc-%d", rec.Port),
			boot.RunFunc(func(ctx context.Context) error {
				return monitorCoproc(ctx, rec.Port, client)
			})))
	}
}

func monitorCoproc(ctx context.Context, port int, c *link.Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-c.StateChan():
			if !s.IsReady() {
				continue
			}
			callCtx, cancel := context.WithTimeout(ctx, time.Second)
			r, err := c.Call(callCtx, &link.Frame{Cmd: cmdStatus})
			cancel()
			if err != nil {
				glog.Warningf("port %d status: %v", port, err)
				continue
			}
			glog.Infof("port %d coprocessor status: %x", port, r.Data)
		case f := <-c.EventChan():
			glog.Infof("port %d event %#02x: %x", port, f.Cmd, f.Data)
		}
	}
}

func serveDashboard(ctx context.Context, r *device.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/devices", websocket.Handler(func(conn *websocket.Conn) {
		rw := wsrw.New(conn)
		for {
			records, err := r.Snapshot(ctx)
			if err != nil {
				return
			}
			if err := rw.WriteJSON(records); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(telemetry.DefaultInterval):
			}
		}
	}))
	server := &http.Server{Addr: listenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	glog.Infof("dashboard on %s", listenAddr)
	err := server.ListenAndServe()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
