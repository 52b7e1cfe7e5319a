package tfstate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tfjson "github.com/hashicorp/terraform-json"
	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// State is the raw on-disk terraform.tfstate layout (version 4).
	State struct {
		Version          int        `json:"version"`
		TerraformVersion string     `json:"terraform_version"`
		Serial           int        `json:"serial"`
		Lineage          string     `json:"lineage"`
		Resources        []Resource `json:"resources"`
	}

	Resource struct {
		Module    string     `json:"module,omitempty"`
		Mode      string     `json:"mode"`
		Type      string     `json:"type"`
		Name      string     `json:"name"`
		Provider  string     `json:"provider"`
		Instances []Instance `json:"instances"`
	}

	Instance struct {
		SchemaVersion int            `json:"schema_version"`
		Attributes    map[string]any `json:"attributes"`
	}
)

// resourceValues is one managed resource instance, whichever format it came from.
type resourceValues struct {
	Address    string
	Type       string
	Attributes map[string]any
}

// stateParser re-reads the file only when its modification time changes, so
// a long-running process picks up new accounts without re-parsing every tick.
type stateParser struct {
	filePath string
	mutex    sync.Mutex
	modTime  time.Time
	cached   []resourceValues
	logger   ports.Logger
}

func newStateParser(path string, logger ports.Logger) *stateParser {
	return &stateParser{
		filePath: path,
		logger:   logger.WithFields(map[string]any{"component": "tfstate_parser", "file_path": path}),
	}
}

func (sp *stateParser) parseAndCache(ctx context.Context) ([]resourceValues, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	info, err := os.Stat(sp.filePath)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeAccountSourceError, "failed to read state file",
			"Check account_sources.tfstate.path.")
	}

	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	if sp.cached != nil && info.ModTime().Equal(sp.modTime) {
		return sp.cached, nil
	}

	raw, err := os.ReadFile(sp.filePath)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeAccountSourceError, "failed to read state file",
			"Check account_sources.tfstate.path.")
	}
	resources, err := parseState(raw)
	if err != nil {
		return nil, err
	}

	sp.logger.Debugf(ctx, "Parsed %d managed resources from state", len(resources))
	sp.cached = resources
	sp.modTime = info.ModTime()
	return resources, nil
}

// parseState accepts either the raw state file or the output of
// `terraform show -json`.
func parseState(raw []byte) ([]resourceValues, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.NewUserFacing(errors.CodeAccountSourceError, "state file is empty", "")
	}

	var header struct {
		FormatVersion string `json:"format_version"`
		Version       int    `json:"version"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeAccountSourceError, "invalid JSON in state", "")
	}

	if header.FormatVersion != "" {
		return parseShowJSON(raw)
	}
	return parseRawState(raw, header.Version)
}

func parseRawState(raw []byte, version int) ([]resourceValues, error) {
	if version < 3 {
		return nil, errors.NewUserFacing(
			errors.CodeAccountSourceError,
			fmt.Sprintf("unsupported state version %d (only v4 and v5 supported)", version),
			"Upgrade or downgrade Terraform if needed and regenerate state.")
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeAccountSourceError, "invalid JSON in state", "")
	}

	var out []resourceValues
	for _, r := range state.Resources {
		if r.Mode != "managed" {
			continue
		}
		for i, inst := range r.Instances {
			address := buildResourceAddress(&r)
			if len(r.Instances) > 1 {
				address = fmt.Sprintf("%s[%d]", address, i)
			}
			out = append(out, resourceValues{Address: address, Type: r.Type, Attributes: inst.Attributes})
		}
	}
	return out, nil
}

func parseShowJSON(raw []byte) ([]resourceValues, error) {
	var state tfjson.State
	if err := state.UnmarshalJSON(raw); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeAccountSourceError, "invalid terraform show output", "")
	}
	if state.Values == nil || state.Values.RootModule == nil {
		return nil, nil
	}

	var out []resourceValues
	var walk func(m *tfjson.StateModule)
	walk = func(m *tfjson.StateModule) {
		for _, r := range m.Resources {
			if r.Mode != tfjson.ManagedResourceMode {
				continue
			}
			out = append(out, resourceValues{Address: r.Address, Type: r.Type, Attributes: r.AttributeValues})
		}
		for _, child := range m.ChildModules {
			walk(child)
		}
	}
	walk(state.Values.RootModule)
	return out, nil
}

func buildResourceAddress(r *Resource) string {
	if r.Module != "" {
		return r.Module + "." + r.Type + "." + r.Name
	}
	return r.Type + "." + r.Name
}
