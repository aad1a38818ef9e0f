package handlers

import (
	"net/http"

	"github.com/nevalis/whispr-backend/internal/config"
	"github.com/nevalis/whispr-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

// UploadAvatar accepts a multipart image, pushes it to Cloudinary and stores
// the resulting URL on the caller's profile document.
func UploadAvatar(w http.ResponseWriter, r *http.Request) {
	me, ok := requireUser(w, r)
	if !ok {
		return
	}

	if cloudinaryService == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": "Avatar uploads are not available",
		})
		return
	}

	// Max 5MB for avatars.
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file provided: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := cloudinaryService.UploadAvatar(r.Context(), fileHeader)
	if err != nil {
		http.Error(w, "Failed to upload file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := services.UpdateAvatar(r.Context(), me.UID, url); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Avatar updated",
		"url":     url,
	})
}
