// internal/worker/payload.go
package worker

import (
	"encoding/json"

	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Defaults are substituted for any missing or unparseable payload field. A
// push event is always displayed; it is never dropped for being malformed.
type Defaults struct {
	Title string
	Body  string
	Icon  string
	Badge string
}

// DefaultTag is applied when the payload carries no tag. It routes home.
const DefaultTag = "default"

// payloadSchema is advisory: a payload failing it is logged so the sender
// can be fixed, but the event is still displayed with defaults.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"title":   {"type": "string"},
		"body":    {"type": "string"},
		"icon":    {"type": "string"},
		"badge":   {"type": "string"},
		"tag":     {"type": "string"},
		"data":    {"type": "object"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"action": {"type": "string"},
					"title":  {"type": "string"}
				},
				"required": ["action"]
			}
		}
	}
}`

var compiledPayloadSchema = gojsonschema.NewStringLoader(payloadSchema)

// ParsePayload decodes a raw push event body, applying defaults per field.
// Parse failures degrade to an all-defaults notification.
func ParsePayload(raw []byte, defaults Defaults, log logger.Logger) models.PushPayload {
	var payload models.PushPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Warn("push payload parse failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		payload = models.PushPayload{}
	} else if result, err := gojsonschema.Validate(compiledPayloadSchema, gojsonschema.NewBytesLoader(raw)); err == nil && !result.Valid() {
		log.Warn("push payload failed schema validation", map[string]interface{}{
			"errors": schemaErrors(result),
		})
	}

	if payload.Title == "" {
		payload.Title = defaults.Title
	}
	if payload.Body == "" {
		payload.Body = defaults.Body
	}
	if payload.Icon == "" {
		payload.Icon = defaults.Icon
	}
	if payload.Badge == "" {
		payload.Badge = defaults.Badge
	}
	if payload.Tag == "" {
		payload.Tag = DefaultTag
	}

	return payload
}

func schemaErrors(result *gojsonschema.Result) []string {
	out := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		out = append(out, e.String())
	}
	return out
}
