package response

import (
	"encoding/json"
	"net/http"
	"reflect"
)

// Envelope wraps every successful API payload.
type Envelope struct {
	Data any `json:"data"`
}

// WriteJSON writes v with status. Content-Type is only set when absent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Data: emptyIfNilSlice(data)})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Data: emptyIfNilSlice(data)})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// emptyIfNilSlice keeps list endpoints rendering [] instead of null.
func emptyIfNilSlice(data any) any {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return data
}
