package config

// Schema is the JSON Schema statsgod's configuration document must satisfy,
// checked before the document is decoded into Config. Field descriptions
// double as the reference documentation for site operators.
const Schema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "statsgod configuration",
	"type": "object",
	"properties": {
		"listen": {
			"description": "UDP addresses to bind for incoming statsd samples, host:port form.",
			"type": "array",
			"items": { "type": "string" },
			"minItems": 1
		},
		"graphite": { "$ref": "#/definitions/sink" },
		"stats": { "$ref": "#/definitions/sink" },
		"http": {
			"description": "Admin HTTP listener.",
			"type": "object",
			"properties": {
				"addr": { "description": "Address to bind, host:port form.", "type": "string" }
			}
		},
		"log": {
			"type": "object",
			"properties": {
				"level": {
					"description": "Minimum severity logged.",
					"type": "string",
					"enum": ["debug", "info", "notice", "warn", "err", "crit"]
				}
			}
		}
	},
	"required": ["listen", "graphite"],
	"definitions": {
		"sink": {
			"type": "object",
			"properties": {
				"host": { "description": "Carbon line receiver hostname.", "type": "string" },
				"port": { "description": "Carbon line receiver TCP port.", "type": "integer", "minimum": 1, "maximum": 65535 },
				"reconnect_interval": { "description": "Seconds between reconnect attempts.", "type": "integer", "minimum": 1 },
				"flush_interval": { "description": "Seconds between scheduled flushes.", "type": "integer", "minimum": 1 },
				"prefix": { "description": "Dotted prefix prepended to every metric name sent to this sink.", "type": "string" }
			},
			"required": ["host", "port"]
		}
	}
}`
