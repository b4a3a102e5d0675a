package helper

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewRequestID returns a unique id for one user-facing request.
func NewRequestID() string {
	return uuid.NewString()
}

// PrettyPrint dumps a value as indented JSON to stdout.
func PrettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("error pretty printing")
		return
	}
	fmt.Println(string(b))
}
