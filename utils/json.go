// utils/json.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ParseJSON decodes the request body into v. The body is consumed; a
// decode failure is the caller's cue to answer with a bad request.
func ParseJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
