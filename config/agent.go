package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/habiliai/agentrouter/errors"
)

// AgentConfig describes one worker agent served by financeagent.
type AgentConfig struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Version     string            `yaml:"version"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	URL         string            `yaml:"url"`
	Skill       string            `yaml:"skill"`
	Instruction string            `yaml:"instruction"`
	Tags        []string          `yaml:"tags"`
	Examples    []string          `yaml:"examples"`
	Metadata    map[string]string `yaml:"metadata"`
}

func (a *AgentConfig) Validate() error {
	if a.Name == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "agent name is required")
	}
	if a.Skill == "" {
		return errors.Wrapf(errors.ErrInvalidConfig, "agent %s: skill is required", a.Name)
	}
	if a.Port < 0 || a.Port > 65535 {
		return errors.Wrapf(errors.ErrInvalidConfig, "agent %s: invalid port %d", a.Name, a.Port)
	}
	return nil
}

func (a *AgentConfig) setDefaults() {
	if a.Host == "" {
		a.Host = "0.0.0.0"
	}
	if a.Port == 0 {
		a.Port = 10001
	}
	if a.Version == "" {
		a.Version = "1.0.0"
	}
	if a.URL == "" {
		a.URL = fmt.Sprintf("http://localhost:%d", a.Port)
	}
}

func LoadAgentFromFile(file string) (agent AgentConfig, err error) {
	var yamlBytes []byte
	if yamlBytes, err = os.ReadFile(file); err != nil {
		err = errors.Wrapf(err, "failed to read file %s", file)
		return
	}

	if err = yaml.Unmarshal(yamlBytes, &agent); err != nil {
		err = errors.Wrapf(err, "failed to unmarshal file %s", file)
		return
	}

	agent.setDefaults()
	err = agent.Validate()
	return
}

func LoadAgentsFromFiles(files []string) ([]AgentConfig, error) {
	agents := make([]AgentConfig, 0, len(files))
	for _, file := range files {
		agent, err := LoadAgentFromFile(file)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, nil
}
