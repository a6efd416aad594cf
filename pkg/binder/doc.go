// Package binder decodes request bodies into structs.
//
//	type loginRequest struct {
//		Username string `json:"username" form:"username"`
//		Password string `json:"password" form:"password"`
//	}
//
//	var req loginRequest
//	if err := binder.Bind(r, &req); err != nil {
//		http.Error(w, err.Error(), http.StatusBadRequest)
//		return
//	}
//
// JSON bodies are limited to MaxJSONSize and decoded strictly; urlencoded
// and multipart forms are matched through `form` tags.
package binder
