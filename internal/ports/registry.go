package ports

import "project-dependencies/internal/types"

type RegistrySourcePort interface {
	LoadDescriptors(path string) ([]types.Descriptor, error)
}
