// Package permissions holds the role table for admin routes, embedded at build time.
package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

type Endpoint struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Permissions []string `json:"permissions"`
	Skip        bool     `json:"skip"`
}

type PermissionData struct {
	Endpoints []Endpoint `json:"endpoints"`
	// Skip disables role checks for every route.
	Skip bool `json:"skip"`

	byRoute map[string]Endpoint
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Parse decodes a permission table. Duplicate method and path pairs are rejected.
func Parse(raw []byte) (*PermissionData, error) {
	var data PermissionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	data.byRoute = make(map[string]Endpoint, len(data.Endpoints))

	for _, endpoint := range data.Endpoints {
		key := routeKey(endpoint.Method, endpoint.Path)
		if _, dup := data.byRoute[key]; dup {
			return nil, fmt.Errorf("duplicate permission entry %q", key)
		}

		data.byRoute[key] = endpoint
	}

	return &data, nil
}

// Lookup returns the entry for a chi route pattern. ok is false for unlisted routes.
func (p *PermissionData) Lookup(path, method string) (Endpoint, bool) {
	endpoint, ok := p.byRoute[routeKey(method, path)]

	return endpoint, ok
}

func Get() *PermissionData {
	data, err := Parse(permissionsData)
	if err != nil {
		log.Fatal().Err(err).Msg("Embedded permissions are invalid")
	}

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("Loaded embedded permissions")

	return data
}
