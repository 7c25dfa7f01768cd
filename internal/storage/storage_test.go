package storage_test

import "github.com/nmoreno/careerhub/internal/config"

func configWithBackend(backend string) config.StorageConfig {
	return config.StorageConfig{
		Backend:  backend,
		Region:   "eu-west-1",
		LocalDir: "uploads",
	}
}
