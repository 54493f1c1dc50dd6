package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Groundwater Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Groundwater Platform API",
			"description": "Groundwater monitoring platform: state/district aggregates, overview summary, boundary GeoJSON, and a natural-language chat endpoint",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Groundwater Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/states": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List state summaries",
					"description": "Every loaded state with its total groundwater availability and district count",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Array of state summaries"},
					},
				},
			},
			"/api/state/{name}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Aggregate one state",
					"parameters": []map[string]interface{}{
						{
							"name":     "name",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Summed aggregation columns and district count"},
						"404": map[string]interface{}{"description": "State not present in the dataset"},
					},
				},
			},
			"/api/state/{name}/districts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Per-district aggregates of one state",
					"parameters": []map[string]interface{}{
						{
							"name":     "name",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Array of district aggregate rows"},
						"404": map[string]interface{}{"description": "State not present in the dataset"},
					},
				},
			},
			"/api/overview": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Headline summary cards",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Total points and safe/moderate/critical counts"},
					},
				},
			},
			"/api/geojson": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Boundary FeatureCollection",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "GeoJSON FeatureCollection"},
						"404": map[string]interface{}{"description": "No boundary file configured"},
					},
				},
			},
			"/api/chat": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Natural-language query",
					"description": "Detects one of the closed chat intents and returns its payload",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"query":      map[string]string{"type": "string"},
										"session_id": map[string]string{"type": "string"},
									},
									"required": []string{"query"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Intent-tagged answer payload"},
					},
				},
			},
			"/api/select": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Resolve a map-click label",
					"description": "Maps a free-text district/state label to a canonical state and broadcasts the selection",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Resolution outcome; matched=false is a no-op for the caller"},
					},
				},
			},
			"/api/upload": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Upload a CSV export",
					"description": "Multipart upload; normalizes the rows and replaces or appends to the dataset",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Upload summary with row and defect counts"},
						"422": map[string]interface{}{"description": "File could not be parsed as CSV"},
					},
				},
			},
			"/api/files": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List uploaded files",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Uploaded file inventory"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
