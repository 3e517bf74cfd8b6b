package tracking

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadSeeds reads every *.yaml file under directory, each holding a list of
// registrations.
func LoadSeeds(directory string, now time.Time) ([]*Registration, error) {
	var registrations []*Registration

	err := filepath.WalkDir(directory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		extension := filepath.Ext(path)
		if entry.IsDir() || (extension != ".yaml" && extension != ".yml") {
			return nil
		}

		bytes, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var fileRegistrations []*Registration
		if err := yaml.Unmarshal(bytes, &fileRegistrations); err != nil {
			return err
		}

		for _, registration := range fileRegistrations {
			if registration.ID == "" {
				registration.ID = strings.TrimSuffix(filepath.Base(path), extension) + "-" + registration.TrainNumber
			}

			if err := registration.Normalise(now); err != nil {
				return err
			}
		}

		registrations = append(registrations, fileRegistrations...)

		return nil
	})

	return registrations, err
}

// SeedRegistry stores the seed registrations that are not in registry yet.
func SeedRegistry(ctx context.Context, registry Registry, directory string, now time.Time) error {
	seeds, err := LoadSeeds(directory, now)
	if err != nil {
		return err
	}

	for _, registration := range seeds {
		if _, err := registry.Get(ctx, registration.ID); err == nil {
			continue
		}

		if err := registry.Put(ctx, registration); err != nil {
			return err
		}

		log.Info().Str("id", registration.ID).Str("key", registration.TrackingKey).Msg("Seeded tracking registration")
	}

	return nil
}
