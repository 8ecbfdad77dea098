package geom

import (
	"encoding/json"
	"fmt"
	"os"
)

// Minimal GeoJSON decode: enough to load polygon annotations exported by
// common GIS tools. Only Polygon geometries are consumed; for multi-ring
// polygons the outer ring is used and holes are ignored.

type geoJSONCollection struct {
	Type     string        `json:"type"`
	Features []geoJSONFeat `json:"features"`
}

type geoJSONFeat struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseGeoJSON decodes a GeoJSON FeatureCollection (or a single Feature or
// Polygon) into ground-truth regions. Region names are taken from a "name"
// property when present, otherwise "region-<i>".
func ParseGeoJSON(data []byte) (*GroundTruth, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("geom: parsing geojson: %w", err)
	}

	var feats []geoJSONFeat
	switch probe.Type {
	case "FeatureCollection":
		var coll geoJSONCollection
		if err := json.Unmarshal(data, &coll); err != nil {
			return nil, fmt.Errorf("geom: parsing feature collection: %w", err)
		}
		feats = coll.Features
	case "Feature":
		var feat geoJSONFeat
		if err := json.Unmarshal(data, &feat); err != nil {
			return nil, fmt.Errorf("geom: parsing feature: %w", err)
		}
		feats = []geoJSONFeat{feat}
	case "Polygon":
		var geo geoJSONGeometry
		if err := json.Unmarshal(data, &geo); err != nil {
			return nil, fmt.Errorf("geom: parsing polygon: %w", err)
		}
		feats = []geoJSONFeat{{Type: "Feature", Geometry: geo}}
	default:
		return nil, fmt.Errorf("geom: unsupported geojson type %q", probe.Type)
	}

	gt := &GroundTruth{}
	for i, feat := range feats {
		if feat.Geometry.Type != "Polygon" {
			continue
		}
		var rings [][][]float64
		if err := json.Unmarshal(feat.Geometry.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("geom: feature %d coordinates: %w", i, err)
		}
		if len(rings) == 0 {
			continue
		}
		outer := rings[0]
		vertices := make([]Point, 0, len(outer))
		for _, pos := range outer {
			if len(pos) < 2 {
				return nil, fmt.Errorf("geom: feature %d has a position with %d ordinates", i, len(pos))
			}
			vertices = append(vertices, Point{X: pos[0], Y: pos[1]})
		}
		// GeoJSON rings repeat the first vertex at the end; drop it.
		if len(vertices) > 1 && vertices[0] == vertices[len(vertices)-1] {
			vertices = vertices[:len(vertices)-1]
		}
		poly, err := NewPolygon(vertices...)
		if err != nil {
			return nil, fmt.Errorf("geom: feature %d: %w", i, err)
		}
		name := fmt.Sprintf("region-%d", i)
		if v, ok := feat.Properties["name"].(string); ok && v != "" {
			name = v
		}
		gt.Regions = append(gt.Regions, Region{Name: name, Polygon: poly})
	}
	if len(gt.Regions) == 0 {
		return nil, fmt.Errorf("geom: geojson contains no polygon features")
	}
	return gt, nil
}

// LoadGeoJSONFile reads and parses a GeoJSON file.
func LoadGeoJSONFile(path string) (*GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geom: reading %s: %w", path, err)
	}
	return ParseGeoJSON(data)
}
