package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/brain.go/pkg/device"
	"github.com/robotalks/brain.go/pkg/telemetry"
)

var (
	mqttURL    = "mqtt://localhost:1883/"
	evalOnly   bool
	outputJSON bool
)

func init() {
	if val := os.Getenv("BRAIN_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL")
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

const (
	shellKey        = "$shell"
	unwatchedPrompt = "[none] > "
)

// Monitor is the brainmon shell state.
type Monitor struct {
	Shell *ishell.Shell
	Queue *telemetry.Queue

	brain string
	watch *telemetry.Subscription
}

func monitorFrom(c *ishell.Context) *Monitor {
	return c.Get(shellKey).(*Monitor)
}

func (m *Monitor) use(id string) {
	m.unwatch()
	m.brain = id
	m.Shell.SetPrompt(fmt.Sprintf("[%s] > ", id))
}

func (m *Monitor) unwatch() {
	if m.watch != nil {
		m.watch.Close()
		m.watch = nil
	}
}

func mustUseBrain(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if monitorFrom(c).brain == "" {
			c.Err(fmt.Errorf("no brain selected, run 'brains' then 'use ID'"))
			return
		}
		fn(c)
	}
}

func printRecords(c *ishell.Context, payload []byte) {
	if outputJSON {
		c.Println(string(payload))
		return
	}
	var records []device.PortRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		c.Err(err)
		return
	}
	for _, rec := range records {
		port := fmt.Sprintf("%d", rec.Port)
		if rec.Adi {
			port = string(rune('A' + rec.Port - 1))
		}
		state := "connected"
		if !rec.Connected {
			state = "DISCONNECTED"
		}
		c.Printf("%-3s %-14s %s\n", port, rec.Type, state)
	}
}

var (
	brainsCmd = ishell.Cmd{
		Name:    "brains",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			m := monitorFrom(c)
			seen := map[string]bool{}
			sub := m.Queue.Sub("brain/+/meta", func(topic string, payload []byte) {
				items := strings.Split(topic, "/")
				if len(items) == 3 {
					seen[items[1]] = true
				}
			})
			defer sub.Close()
			time.Sleep(500 * time.Millisecond)
			if len(seen) == 0 {
				c.Println("No brains found")
				return
			}
			ids := make([]string, 0, len(seen))
			for id := range seen {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				c.Println(id)
			}
		},
	}

	useCmd = ishell.Cmd{
		Name: "use",
		Help: "ID",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			monitorFrom(c).use(c.Args[0])
		},
	}

	devicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"dev"},
		Help:    "",
		Func: mustUseBrain(func(c *ishell.Context) {
			m := monitorFrom(c)
			recordsCh := make(chan []byte, 1)
			sub := m.Queue.Sub("brain/"+m.brain+"/devices", func(_ string, payload []byte) {
				select {
				case recordsCh <- payload:
				default:
				}
			})
			defer sub.Close()
			select {
			case payload := <-recordsCh:
				printRecords(c, payload)
			case <-time.After(3 * time.Second):
				c.Err(fmt.Errorf("no snapshot from brain %q", m.brain))
			}
		}),
	}

	watchCmd = ishell.Cmd{
		Name: "watch",
		Help: "",
		Func: mustUseBrain(func(c *ishell.Context) {
			m := monitorFrom(c)
			m.unwatch()
			m.watch = m.Queue.Sub("brain/"+m.brain+"/#", func(topic string, payload []byte) {
				log.Printf("%s: %s", topic, string(payload))
			})
		}),
	}

	unwatchCmd = ishell.Cmd{
		Name: "unwatch",
		Help: "",
		Func: func(c *ishell.Context) {
			monitorFrom(c).unwatch()
		},
	}

	sendCmd = ishell.Cmd{
		Name: "send",
		Help: "TOPIC PAYLOAD",
		Func: mustUseBrain(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("TOPIC and PAYLOAD required"))
				return
			}
			m := monitorFrom(c)
			topic := "brain/" + m.brain + "/" + c.Args[0]
			payload := strings.Join(c.Args[1:], " ")
			token := m.Queue.Pub(topic, []byte(payload))
			token.Wait()
			if err := token.Error(); err != nil {
				c.Err(err)
			}
		}),
	}
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	m := &Monitor{Shell: ishell.New(), Queue: q}
	m.Shell.Set(shellKey, m)
	m.Shell.SetPrompt(unwatchedPrompt)
	for _, cmd := range []*ishell.Cmd{&brainsCmd, &useCmd, &devicesCmd, &watchCmd, &unwatchCmd, &sendCmd} {
		m.Shell.AddCmd(cmd)
	}

	if args := flag.Args(); len(args) > 0 {
		if err := m.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if evalOnly {
		log.Fatalln("command expected")
	}
	m.Shell.Run()
}
