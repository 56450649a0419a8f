package config

// Config represents the .goalrun.yaml file.
type Config struct {
	Model         string `yaml:"model"`
	MaxIterations int    `yaml:"max_iterations"`
	UVBin         string `yaml:"uv_bin"`
}
