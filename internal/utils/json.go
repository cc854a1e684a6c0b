package utils

import (
	"encoding/json"
	"log"
)

// JSONWriter is the slice of a websocket connection the relay needs.
// *websocket.Conn satisfies it; tests substitute in-memory fakes.
type JSONWriter interface {
	WriteJSON(v interface{}) error
}

// SafeJSONParse parses JSON safely
func SafeJSONParse(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// SendJSON sends a JSON payload to a websocket connection.
// Fiber's websocket connection is not safe for concurrent writes; the room
// manager serializes writes under its lock.
func SendJSON(c JSONWriter, payload interface{}) error {
	return c.WriteJSON(payload)
}

// LogError logs an error if it's not nil
func LogError(err error, context string) {
	if err != nil {
		log.Printf("Error [%s]: %v", context, err)
	}
}
