package handlers

import (
	"encoding/json"
	"net/http"
)

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func ref(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

var modeParameter = map[string]interface{}{
	"name":        "mode",
	"in":          "query",
	"description": "Appointment mode to plot. Empty, unknown or malformed values plot every mode or nothing, never an error.",
	"required":    false,
	"schema":      map[string]interface{}{"type": "string", "maxLength": 256},
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "NHS Appointments Dashboard API",
			"description": "Read-only views over the monthly NHS appointments dataset loaded at startup",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://127.0.0.1:8050", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "KPI summary",
					"responses": map[string]interface{}{"200": jsonResponse("Summary and formatted cards", ref("Summary"))},
				},
			},
			"/api/modes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Mode dropdown options in first-seen order",
					"responses": map[string]interface{}{"200": jsonResponse("Dropdown options", ref("Modes"))},
				},
			},
			"/api/charts/mode-line": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Monthly appointments per mode",
					"parameters": []map[string]interface{}{modeParameter},
					"responses":  map[string]interface{}{"200": jsonResponse("Line figure", ref("LineFigure"))},
				},
			},
			"/api/charts/season-bar": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Total appointments per season",
					"responses": map[string]interface{}{"200": jsonResponse("Bar figure", ref("BarFigure"))},
				},
			},
			"/charts/mode-line.svg": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Line chart rendered as SVG",
					"parameters": []map[string]interface{}{modeParameter},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "SVG image", "content": map[string]interface{}{"image/svg+xml": map[string]interface{}{}}},
						"204": map[string]interface{}{"description": "No data to plot"},
					},
				},
			},
			"/charts/season-bar.svg": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Seasonal bar chart rendered as SVG",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "SVG image", "content": map[string]interface{}{"image/svg+xml": map[string]interface{}{}}},
						"204": map[string]interface{}{"description": "No data to plot"},
					},
				},
			},
			"/api/export.xlsx": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Aggregates as an Excel workbook (Summary, Monthly and Seasonal sheets)",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Workbook",
							"content": map[string]interface{}{
								"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": map[string]interface{}{},
							},
						},
					},
				},
			},
			"/ws/mode-line": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Websocket filter channel",
					"description": `Send {"mode":"..."} text frames; each is answered with a LineFigure, in order.`,
					"responses":   map[string]interface{}{"101": map[string]interface{}{"description": "Switching protocols"}},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Health check",
					"responses": map[string]interface{}{"200": map[string]interface{}{"description": "Service is healthy"}},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Prometheus metrics",
					"responses": map[string]interface{}{"200": map[string]interface{}{"description": "Prometheus text format"}},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Summary": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"kpis": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"total_appointments": map[string]string{"type": "integer"},
								"total_months":       map[string]string{"type": "integer"},
								"avg_per_month":      map[string]interface{}{"type": "integer", "nullable": true},
							},
						},
						"cards": map[string]interface{}{"type": "array", "items": ref("KPICard")},
					},
				},
				"KPICard": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":    map[string]string{"type": "string"},
						"title": map[string]string{"type": "string"},
						"value": map[string]string{"type": "string"},
					},
				},
				"Modes": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"placeholder": map[string]string{"type": "string"},
						"clearable":   map[string]string{"type": "boolean"},
						"options": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"label": map[string]string{"type": "string"},
									"value": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
				"LineFigure": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":   map[string]string{"type": "string"},
						"x_label": map[string]string{"type": "string"},
						"y_label": map[string]string{"type": "string"},
						"mode":    map[string]string{"type": "string"},
						"points": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"x":      map[string]string{"type": "string", "example": "2023-01"},
									"y":      map[string]string{"type": "integer"},
									"series": map[string]string{"type": "string"},
								},
							},
						},
						"traces": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"name": map[string]string{"type": "string"},
									"x":    map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
									"y":    map[string]interface{}{"type": "array", "items": map[string]string{"type": "integer"}},
								},
							},
						},
					},
				},
				"BarFigure": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":   map[string]string{"type": "string"},
						"x_label": map[string]string{"type": "string"},
						"y_label": map[string]string{"type": "string"},
						"bars": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"category": map[string]interface{}{"type": "string", "enum": []string{"Winter", "Spring", "Summer", "Autumn"}},
									"value":    map[string]string{"type": "integer"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
