// Package loader reads the raw admin configuration from disk.
//
// Two authoring formats are accepted: a directory (or single file) of CUE
// sources, and a YAML document named admin.yaml. Both produce the same
// config.Tree; entity declaration order is recorded in entity_order unless
// the source sets it explicitly.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/adminpanel/internal/config"
)

// Format names an authoring format.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// YAMLNames are the file names probed in a directory without CUE sources.
var YAMLNames = []string{"admin.yaml", "admin.yml"}

// Error codes reported in LoadError.Code.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"
	ErrCodeDecode      = "E007"
)

// Result is a loaded raw configuration.
type Result struct {
	Tree   *config.Tree
	Format Format
	Files  []string
}

// LoadError is a loading failure, with a source position when the
// underlying parser reported one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos

	// File and Line locate YAML errors, which carry no token.Pos.
	File string
	Line int
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Load reads the configuration at path. A directory holding .cue files is
// loaded as one CUE instance; otherwise admin.yaml is looked up in it. A
// file is loaded according to its extension.
func Load(path string) (*Result, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("configuration not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing configuration: %v", err)}
	}

	if !info.IsDir() {
		switch filepath.Ext(path) {
		case ".cue":
			return loadCUEFile(path)
		case ".yaml", ".yml":
			return loadYAML(path)
		default:
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("unsupported configuration file: %s", path)}
		}
	}

	cueFiles, err := FindCUEFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) > 0 {
		return loadCUEDir(path, cueFiles)
	}
	for _, name := range YAMLNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return loadYAML(candidate)
		}
	}
	return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files or %s found in %s", YAMLNames[0], path)}
}

// FindCUEFiles walks dir and returns all .cue file paths in lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != dir && info.Name() == "cue.mod" {
			return filepath.SkipDir
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func loadCUEDir(dir string, files []string) (*Result, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(ErrCodeLoadFailed, "loading CUE files", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	return fromCUE(value, files)
}

func loadCUEFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	return fromCUE(value, []string{path})
}

func fromCUE(value cue.Value, files []string) (*Result, error) {
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "configuration is not concrete", err)
	}

	data, err := value.MarshalJSON()
	if err != nil {
		return nil, cueError(ErrCodeDecode, "exporting CUE value", err)
	}
	tree, err := config.Decode(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), Pos: value.Pos()}
	}

	if len(tree.EntityOrder) == 0 {
		if entities := value.LookupPath(cue.ParsePath("entities")); entities.Exists() {
			iter, err := entities.Fields()
			if err != nil {
				return nil, cueError(ErrCodeGeneric, "iterating entities", err)
			}
			for iter.Next() {
				tree.EntityOrder = append(tree.EntityOrder, iter.Label())
			}
		}
	}
	return &Result{Tree: tree, Format: FormatCUE, Files: files}, nil
}

// cueError converts a CUE error, keeping the first reported position.
func cueError(code, context string, err error) *LoadError {
	le := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func loadYAML(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: path}
	}
	if len(doc.Content) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "configuration document is empty", File: path}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "configuration must be a mapping", File: path, Line: root.Line}
	}

	var generic map[string]any
	if err := root.Decode(&generic); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: path, Line: root.Line}
	}
	js, err := json.Marshal(generic)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: path, Line: root.Line}
	}
	tree, err := config.Decode(js)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error(), File: path, Line: root.Line}
	}

	if len(tree.EntityOrder) == 0 {
		if entities := mappingValue(root, "entities"); entities != nil && entities.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(entities.Content); i += 2 {
				tree.EntityOrder = append(tree.EntityOrder, entities.Content[i].Value)
			}
		}
	}
	return &Result{Tree: tree, Format: FormatYAML, Files: []string{path}}, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
