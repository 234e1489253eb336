package device

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PortConfig declares one entry of the device table.
type PortConfig struct {
	Port int    `yaml:"port"`
	Adi  bool   `yaml:"adi,omitempty"`
	Type Type   `yaml:"type"`
	Name string `yaml:"name,omitempty"`
	// Baud applies to serial ports only.
	Baud uint32 `yaml:"baud,omitempty"`
}

// Config is the declared device table.
type Config struct {
	Ports []PortConfig `yaml:"ports"`
}

// LoadConfig reads a device table declaration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses a device table declaration.
func ParseConfig(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks port ranges and types against the fixed table.
func (c *Config) Validate() error {
	seenSmart := map[int]bool{}
	seenAdi := map[int]bool{}
	for _, pc := range c.Ports {
		switch {
		case pc.Adi:
			if !AdiPort(pc.Port).IsValid() {
				return fmt.Errorf("adi port %d out of range 1..%d", pc.Port, NumAdiPorts)
			}
			if seenAdi[pc.Port] {
				return fmt.Errorf("adi port %d declared twice", pc.Port)
			}
			seenAdi[pc.Port] = true
			switch pc.Type {
			case TypeDigitalIn, TypeDigitalOut, TypeSolenoid, TypeLineTracker:
			default:
				return fmt.Errorf("adi port %d: unsupported type %q", pc.Port, pc.Type)
			}
		default:
			if !SmartPort(pc.Port).IsValid() {
				return fmt.Errorf("port %d out of range 1..%d", pc.Port, NumSmartPorts)
			}
			if seenSmart[pc.Port] {
				return fmt.Errorf("port %d declared twice", pc.Port)
			}
			seenSmart[pc.Port] = true
			switch pc.Type {
			case TypeMotor, TypeSerial:
			default:
				return fmt.Errorf("port %d: unsupported type %q", pc.Port, pc.Type)
			}
			if pc.Type == TypeSerial && pc.Baud > MaxBaudRate {
				return fmt.Errorf("port %d: baud %d exceeds %d", pc.Port, pc.Baud, MaxBaudRate)
			}
		}
	}
	return nil
}

// Apply binds every declared device into the registry.
func (c *Config) Apply(ctx context.Context, r *Registry) error {
	for _, pc := range c.Ports {
		var err error
		if pc.Adi {
			port := AdiPort(pc.Port)
			switch pc.Type {
			case TypeDigitalIn:
				_, err = NewDigitalIn(ctx, r, port)
			case TypeDigitalOut:
				_, err = NewDigitalOut(ctx, r, port)
			case TypeSolenoid:
				_, err = NewSolenoid(ctx, r, port)
			case TypeLineTracker:
				_, err = NewLineTracker(ctx, r, port)
			}
		} else {
			port := SmartPort(pc.Port)
			switch pc.Type {
			case TypeMotor:
				_, err = NewMotor(ctx, r, port)
			case TypeSerial:
				baud := pc.Baud
				if baud == 0 {
					baud = DefaultBaudRate
				}
				_, err = OpenSerialPort(ctx, r, port, baud)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
