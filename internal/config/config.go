// Package config loads the agent configuration from flags, environment
// variables and an optional YAML file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Schera-ole/monitors/internal/driver/resctrl"
)

const (
	MonitorCPU      = "cpu"
	MonitorMemoryBW = "membw"
)

type AgentConfig struct {
	Address       string
	PollInterval  time.Duration
	ComputeDriver string
	Monitors      []string
	ResctrlRoot   string
	LogLevel      string
	ConfigFile    string

	// Per-node values, only settable through the config file.
	MaxMemoryBandwidth map[int]float64
	L3ByNode           map[int][]int
}

type fileConfig struct {
	MaxMemoryBandwidth map[string]float64 `mapstructure:"max_memory_bandwidth"`
	L3ByNode           map[string][]int   `mapstructure:"l3_by_node"`
}

// NewAgentConfig parses args. Environment variables take precedence over
// flags.
func NewAgentConfig(args []string) (*AgentConfig, error) {
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	address := fs.String("a", "localhost:8080", "Address of the introspection server")
	pollInterval := fs.Int("p", 2, "The frequency of polling monitors in seconds")
	computeDriver := fs.String("d", resctrl.DriverName, "Active compute driver, reported as metric source")
	monitors := fs.String("m", MonitorCPU+","+MonitorMemoryBW, "Comma-separated list of monitors to load")
	resctrlRoot := fs.String("r", resctrl.DefaultRoot, "Mount point of the resctrl filesystem")
	logLevel := fs.String("g", "info", "Log level")
	configFile := fs.String("c", "", "Path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	envIntVars := map[string]*int{
		"POLL_INTERVAL": pollInterval,
	}

	envStrVars := map[string]*string{
		"ADDRESS":        address,
		"COMPUTE_DRIVER": computeDriver,
		"MONITORS":       monitors,
		"RESCTRL_ROOT":   resctrlRoot,
		"LOG_LEVEL":      logLevel,
		"CONFIG":         configFile,
	}

	for envVar, flag := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			value, err := strconv.Atoi(envValue)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value %q: %w", envVar, envValue, err)
			}
			*flag = value
		}
	}

	for envVar, flag := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	if *pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", *pollInterval)
	}

	config := &AgentConfig{
		Address:            *address,
		PollInterval:       time.Duration(*pollInterval) * time.Second,
		ComputeDriver:      *computeDriver,
		Monitors:           splitList(*monitors),
		ResctrlRoot:        *resctrlRoot,
		LogLevel:           *logLevel,
		ConfigFile:         *configFile,
		MaxMemoryBandwidth: map[int]float64{},
		L3ByNode:           map[int][]int{},
	}

	if config.ConfigFile != "" {
		if err := config.loadFile(); err != nil {
			return nil, err
		}
	}
	return config, nil
}

func (c *AgentConfig) loadFile() error {
	v := viper.New()
	v.SetConfigFile(c.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", c.ConfigFile, err)
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("cannot decode config: %w", err)
	}

	for key, value := range fc.MaxMemoryBandwidth {
		node, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid NUMA node %q in max_memory_bandwidth: %w", key, err)
		}
		c.MaxMemoryBandwidth[node] = value
	}
	for key, domains := range fc.L3ByNode {
		node, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid NUMA node %q in l3_by_node: %w", key, err)
		}
		c.L3ByNode[node] = domains
	}
	return nil
}

func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
