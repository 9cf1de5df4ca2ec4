package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/braunma/dem-console/pkg/models"
	"github.com/braunma/dem-console/pkg/utils"
)

// Definition folders below the base path
const (
	TargetsFolder = "targets"
	HostsFolder   = "hosts"
	GroupsFolder  = "groups"
)

// Definitions is everything one apply run reconciles
type Definitions struct {
	Targets []*models.Target
	Hosts   []*models.Host
	Groups  []*models.Group
}

// DataLoader handles loading and validating YAML definition files
type DataLoader struct {
	basePath string
	logger   *utils.Logger
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string, logger *utils.Logger) *DataLoader {
	return &DataLoader{
		basePath: basePath,
		logger:   logger,
	}
}

// BasePath returns the directory holding the definition folders
func (dl *DataLoader) BasePath() string {
	return dl.basePath
}

// LoadAll loads and validates the targets, hosts and groups folders
func (dl *DataLoader) LoadAll() (*Definitions, error) {
	var defs Definitions
	var err error

	if defs.Targets, err = dl.LoadTargets(TargetsFolder); err != nil {
		return nil, err
	}
	if defs.Hosts, err = dl.LoadHosts(HostsFolder); err != nil {
		return nil, err
	}
	if defs.Groups, err = dl.LoadGroups(GroupsFolder); err != nil {
		return nil, err
	}

	if err := Validate(&defs); err != nil {
		return nil, err
	}
	for _, warning := range CrossCheck(&defs) {
		dl.logger.Warning("%s", warning)
	}
	return &defs, nil
}

// LoadTargets loads target definitions from a folder
func (dl *DataLoader) LoadTargets(folder string) ([]*models.Target, error) {
	var targets []*models.Target
	err := dl.loadFromFolder(folder, &targets)
	if err != nil {
		return nil, err
	}
	dl.logger.Debug("Loaded %d targets from %s", len(targets), folder)
	return targets, nil
}

// LoadHosts loads host definitions from a folder
func (dl *DataLoader) LoadHosts(folder string) ([]*models.Host, error) {
	var hosts []*models.Host
	err := dl.loadFromFolder(folder, &hosts)
	if err != nil {
		return nil, err
	}
	dl.logger.Debug("Loaded %d hosts from %s", len(hosts), folder)
	return hosts, nil
}

// LoadGroups loads group definitions from a folder
func (dl *DataLoader) LoadGroups(folder string) ([]*models.Group, error) {
	var groups []*models.Group
	err := dl.loadFromFolder(folder, &groups)
	if err != nil {
		return nil, err
	}
	dl.logger.Debug("Loaded %d groups from %s", len(groups), folder)
	return groups, nil
}

// loadFromFolder loads YAML files from a folder and unmarshals into the target
func (dl *DataLoader) loadFromFolder(folder string, target interface{}) error {
	targetDir := filepath.Join(dl.basePath, folder)

	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		dl.logger.Warning("Folder %s not found, skipping", folder)
		return nil
	}

	yamlFiles, err := findYAMLFiles(targetDir)
	if err != nil {
		return fmt.Errorf("failed to find YAML files in %s: %w", targetDir, err)
	}

	if len(yamlFiles) == 0 {
		dl.logger.Warning("No YAML files found in %s", folder)
		return nil
	}

	for _, file := range yamlFiles {
		if err := dl.loadFile(file, target); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// loadFile loads a single YAML file holding a list and appends its items to
// target
func (dl *DataLoader) loadFile(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	switch t := target.(type) {
	case *[]*models.Target:
		var newItems []*models.Target
		if err := yaml.Unmarshal(content, &newItems); err != nil {
			return fmt.Errorf("failed to unmarshal targets: %w", err)
		}
		*t = append(*t, newItems...)
	case *[]*models.Host:
		var newItems []*models.Host
		if err := yaml.Unmarshal(content, &newItems); err != nil {
			return fmt.Errorf("failed to unmarshal hosts: %w", err)
		}
		*t = append(*t, newItems...)
	case *[]*models.Group:
		var newItems []*models.Group
		if err := yaml.Unmarshal(content, &newItems); err != nil {
			return fmt.Errorf("failed to unmarshal groups: %w", err)
		}
		*t = append(*t, newItems...)
	default:
		return fmt.Errorf("unsupported target type: %T", target)
	}

	return nil
}

// findYAMLFiles recursively finds all YAML files in a directory, in lexical
// order so that apply runs are repeatable
func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

func isYAMLFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
