package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/remember-me/care-monitor/internal/models"
	"gopkg.in/yaml.v3"
)

// Todo is the number of log entries a receiver is expected to have.
type Todo struct {
	Receiver string
	Required int
}

// Todos is an ordered receiver -> required count mapping. It decodes from a
// JSON or YAML object and keeps the keys in document order. A repeated key
// keeps its first position and takes its last value.
type Todos []Todo

func (t Todos) set(receiver string, required int) Todos {
	for i := range t {
		if t[i].Receiver == receiver {
			t[i].Required = required
			return t
		}
	}
	return append(t, Todo{Receiver: receiver, Required: required})
}

// wholeCount accepts counts written as 2 or 2.0.
func wholeCount(v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("count %v is not a whole number", v)
	}
	return int(v), nil
}

// UnmarshalJSON reads a JSON object token by token so key order survives.
func (t *Todos) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("todos must be an object")
	}

	var out Todos
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("todos[%q]: %w", key, err)
		}
		required, err := wholeCount(value)
		if err != nil {
			return fmt.Errorf("todos[%q]: %w", key, err)
		}
		out = out.set(key, required)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}

// UnmarshalYAML walks the mapping node pairwise so key order survives.
func (t *Todos) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("todos must be a mapping, line %d", node.Line)
	}
	out := make(Todos, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var value float64
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("todos[%q]: %w", key, err)
		}
		required, err := wholeCount(value)
		if err != nil {
			return fmt.Errorf("todos[%q]: %w", key, err)
		}
		out = out.set(key, required)
	}
	*t = out
	return nil
}

// LoadTodos reads a YAML quota file.
func LoadTodos(path string) (Todos, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read todos file: %w", err)
	}
	var todos Todos
	if err := yaml.Unmarshal(data, &todos); err != nil {
		return nil, fmt.Errorf("parse todos file: %w", err)
	}
	return todos, nil
}

// BuildSummary counts log entries per receiver and reports each todo in order.
// Receivers absent from the log count as zero.
func BuildSummary(records []models.LogRecord, todos Todos) []string {
	completed := make(map[string]int, len(records))
	for _, r := range records {
		completed[r.Receiver]++
	}

	result := make([]string, 0, len(todos))
	for _, todo := range todos {
		actual := completed[todo.Receiver]
		if actual < todo.Required {
			result = append(result, fmt.Sprintf("%s: required %d, completed %d, missed %d",
				todo.Receiver, todo.Required, actual, todo.Required-actual))
		} else {
			result = append(result, fmt.Sprintf("%s: completed %d/%d, all good",
				todo.Receiver, actual, todo.Required))
		}
	}
	return result
}
