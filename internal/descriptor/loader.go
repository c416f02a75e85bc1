package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"modelc/internal/dsl"
)

// имена файла дескриптора в каталоге модели, по приоритету
var fileNames = []string{"model.yaml", "model.yml"}

// Find ищет дескриптор в каталоге модели. "" без ошибки — дескриптора нет.
func Find(dir string) (string, error) {
	for _, name := range fileNames {
		p := filepath.Join(dir, name)
		st, err := os.Stat(p)
		if err == nil && !st.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// Load читает один YAML-файл дескриптора
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}
	d.Name = strings.TrimSpace(d.Name)
	// имя модели — из name или из имени каталога
	if d.Name == "" {
		d.Name = filepath.Base(filepath.Dir(path))
	}
	return &d, nil
}

// LoadFor: явный путь или поиск в каталоге модели; nil, nil — дескриптора нет
func LoadFor(dir, explicit string) (*Descriptor, error) {
	path := explicit
	if path == "" {
		p, err := Find(dir)
		if err != nil || p == "" {
			return nil, err
		}
		path = p
	}
	return Load(path)
}

// Apply переносит данные дескриптора в модель
func (d *Descriptor) Apply(m *dsl.Model) {
	if d == nil || m == nil {
		return
	}
	if d.Name != "" {
		m.Name = d.Name
	}
	m.Info = dsl.Info{Title: d.Title, Version: d.Version, Description: d.Description}
}
