package server

// BlobServerConfig selects where image bytes are stored.
type BlobServerConfig struct {
	Driver string       `mapstructure:"driver" yaml:"driver"`
	FS     BlobFSConfig `mapstructure:"fs"     yaml:"fs"`
	S3     BlobS3Config `mapstructure:"s3"     yaml:"s3"`
}

type BlobFSConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

type BlobS3Config struct {
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Region    string `mapstructure:"region"     yaml:"region"`
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}
