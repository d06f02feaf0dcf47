package config

import (
	"gopkg.in/yaml.v3"
)

// WorkflowFile represents the structure of the matrix.yaml workflow file.
type WorkflowFile struct {
	Name string            `yaml:"name"`
	On   OnDTO             `yaml:"on"`
	Env  map[string]string `yaml:"env"`
	// Jobs is kept as a node so that job declaration order survives decoding.
	Jobs yaml.Node `yaml:"jobs"`
}

// OnDTO represents the trigger section. It accepts a single event name,
// a list of event names, or a mapping of event names to their configuration.
type OnDTO struct {
	Schedule    []ScheduleDTO
	Push        bool
	PullRequest bool
	Ignored     []string
}

// ScheduleDTO is one entry of on.schedule.
type ScheduleDTO struct {
	Cron string `yaml:"cron"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OnDTO) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		o.enable(node.Value)
	case yaml.SequenceNode:
		for _, item := range node.Content {
			o.enable(item.Value)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i].Value, node.Content[i+1]
			if key == "schedule" {
				if err := value.Decode(&o.Schedule); err != nil {
					return err
				}
				continue
			}
			o.enable(key)
		}
	}
	return nil
}

func (o *OnDTO) enable(event string) {
	switch event {
	case "push":
		o.Push = true
	case "pull_request":
		o.PullRequest = true
	default:
		o.Ignored = append(o.Ignored, event)
	}
}

// JobDTO represents a job definition in the workflow file.
type JobDTO struct {
	Name           string            `yaml:"name"`
	RunsOn         string            `yaml:"runs-on"`
	TimeoutMinutes float64           `yaml:"timeout-minutes"`
	Env            map[string]string `yaml:"env"`
	Strategy       StrategyDTO       `yaml:"strategy"`
	Steps          []StepDTO         `yaml:"steps"`
}

// StrategyDTO represents the strategy section of a job.
type StrategyDTO struct {
	Matrix   MatrixDTO `yaml:"matrix"`
	FailFast *bool     `yaml:"fail-fast"`
}

// MatrixDTO represents strategy.matrix. Every key except include and exclude
// is an axis; axes keep their declaration order.
type MatrixDTO struct {
	Axes    []AxisDTO
	Include []map[string]string
	Exclude []map[string]string
}

// AxisDTO is one axis of the matrix.
type AxisDTO struct {
	Name   string
	Values []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MatrixDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return &yaml.TypeError{Errors: []string{"strategy.matrix must be a mapping"}}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "include":
			if err := value.Decode(&m.Include); err != nil {
				return err
			}
		case "exclude":
			if err := value.Decode(&m.Exclude); err != nil {
				return err
			}
		default:
			var values []string
			if err := value.Decode(&values); err != nil {
				return err
			}
			m.Axes = append(m.Axes, AxisDTO{Name: key, Values: values})
		}
	}
	return nil
}

// StepDTO represents a step definition in the workflow file.
type StepDTO struct {
	ID               string            `yaml:"id"`
	Name             string            `yaml:"name"`
	Uses             string            `yaml:"uses"`
	Run              string            `yaml:"run"`
	Shell            string            `yaml:"shell"`
	If               string            `yaml:"if"`
	With             map[string]string `yaml:"with"`
	Env              map[string]string `yaml:"env"`
	WorkingDirectory string            `yaml:"working-directory"`
	TimeoutMinutes   float64           `yaml:"timeout-minutes"`
}
