package handler

import "net/http"

// Check serves /api/check, the legacy 0/1 endpoint, through the shared engine.
func Check(w http.ResponseWriter, r *http.Request) { Handler(w, r) }
