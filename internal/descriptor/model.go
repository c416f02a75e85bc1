package descriptor

// Descriptor: model.yaml рядом с файлами сущностей
type Descriptor struct {
	Name        string `yaml:"name,omitempty"`
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
}
