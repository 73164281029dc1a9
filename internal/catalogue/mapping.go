package catalogue

import (
	"encoding/json"
	"fmt"
	"os"
)

// The venue mapping file is the versioned source of truth for the catalogue:
// an array of organisations, each carrying its bookable venues. The whole
// file is rejected on any validation error so a bad deploy cannot half-load
// the catalogue.

// MappingLocation is the location block of a mapped venue.
type MappingLocation struct {
	Postcode  *string `json:"postcode"`
	Address   *string `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MappingVenue is one venue entry under an organisation.
type MappingVenue struct {
	VenueName string          `json:"venue_name"`
	Slug      string          `json:"slug"`
	Sports    []string        `json:"sports"`
	Location  MappingLocation `json:"location"`
}

// MappingOrganisation is one organisation entry in the mapping file.
type MappingOrganisation struct {
	Organisation        string         `json:"organisation"`
	OrganisationWebsite string         `json:"organisation_website"`
	Venues              []MappingVenue `json:"venues"`
}

var supportedSports = map[string]bool{
	"badminton":  true,
	"squash":     true,
	"pickleball": true,
}

// LoadMappingFile reads and validates the venue mapping file.
func LoadMappingFile(path string) ([]MappingOrganisation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue mapping file: %w", err)
	}
	return ParseMapping(raw)
}

// ParseMapping decodes and validates raw mapping JSON.
func ParseMapping(raw []byte) ([]MappingOrganisation, error) {
	var organisations []MappingOrganisation
	if err := json.Unmarshal(raw, &organisations); err != nil {
		return nil, fmt.Errorf("decode venue mapping: %w", err)
	}
	if err := validateMapping(organisations); err != nil {
		return nil, err
	}
	return organisations, nil
}

// validateMapping fails fast on the first structural problem. Composite keys
// must remain unique across the whole file: two venues hashing to the same
// key would silently merge their availability downstream.
func validateMapping(organisations []MappingOrganisation) error {
	if len(organisations) == 0 {
		return fmt.Errorf("venue mapping is empty")
	}
	seen := make(map[string]string)
	for _, org := range organisations {
		if org.Organisation == "" {
			return fmt.Errorf("organisation with empty name")
		}
		if org.OrganisationWebsite == "" {
			return fmt.Errorf("organisation %q: missing organisation_website", org.Organisation)
		}
		if len(org.Venues) == 0 {
			return fmt.Errorf("organisation %q: no venues", org.Organisation)
		}
		for _, v := range org.Venues {
			if v.VenueName == "" || v.Slug == "" {
				return fmt.Errorf("organisation %q: venue with missing name or slug", org.Organisation)
			}
			if len(v.Sports) == 0 {
				return fmt.Errorf("venue %q: no sports offered", v.Slug)
			}
			for _, s := range v.Sports {
				if !supportedSports[s] {
					return fmt.Errorf("venue %q: unsupported sport %q", v.Slug, s)
				}
			}
			if v.Location.Latitude == 0 && v.Location.Longitude == 0 {
				return fmt.Errorf("venue %q: missing coordinates", v.Slug)
			}
			key := CompositeKey(org.OrganisationWebsite, v.Slug)
			if prior, dup := seen[key]; dup {
				return fmt.Errorf("venue %q: composite key %s collides with %q", v.Slug, key, prior)
			}
			seen[key] = v.Slug
		}
	}
	return nil
}
