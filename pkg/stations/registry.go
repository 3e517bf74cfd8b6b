// Package stations maps between station names and the canonical codes the
// backends use, so snapshots from shapes without codes still carry one.
package stations

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/travigo/treni/pkg/util"
)

//go:embed stations.csv
var embeddedStations []byte

type Station struct {
	Name    string `csv:"name"`
	Code    string `csv:"code"`
	Region  string `csv:"region"`
	Aliases string `csv:"aliases"`
}

type Registry struct {
	byName map[string]*Station
	byCode map[string]*Station
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry built from the embedded station list.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		registry, err := Load(embeddedStations)
		if err != nil {
			panic(err)
		}

		defaultRegistry = registry
	})

	return defaultRegistry
}

func Load(data []byte) (*Registry, error) {
	var records []*Station
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, err
	}

	registry := &Registry{
		byName: map[string]*Station{},
		byCode: map[string]*Station{},
	}

	for _, station := range records {
		registry.byCode[strings.ToUpper(station.Code)] = station
		registry.byName[nameKey(station.Name)] = station

		for _, alias := range strings.Split(station.Aliases, ";") {
			if alias = nameKey(alias); alias != "" {
				registry.byName[alias] = station
			}
		}
	}

	return registry, nil
}

func (r *Registry) CodeForName(name string) (string, bool) {
	if r == nil {
		return "", false
	}

	station, ok := r.byName[nameKey(name)]
	if !ok {
		return "", false
	}

	return station.Code, true
}

func (r *Registry) NameForCode(code string) (string, bool) {
	if r == nil {
		return "", false
	}

	station, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", false
	}

	return station.Name, true
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.byCode)
}

func nameKey(name string) string {
	return strings.ToUpper(util.CollapseSpaces(name))
}
