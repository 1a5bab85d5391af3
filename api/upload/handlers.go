package upload

import (
	"errors"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/demodrop/engine/api/types"
	"github.com/demodrop/engine/internal/models"
	uploadsvc "github.com/demodrop/engine/internal/services/upload"
	apperrors "github.com/demodrop/engine/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Post accepts a multipart audio upload and registers the track.
//
// Lossy sources are a two-phase flow: the first request answers 409 with a
// confirmation advisory, and the client repeats the request with
// confirmed_lossy=true to proceed.
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Uploads == nil {
			appErr := apperrors.New(apperrors.ErrCodeServiceDown, "Uploads are not available")
			c.JSON(appErr.GetHTTPCode(), appErr)
			return
		}

		ownerID := c.PostForm("owner")
		if ownerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner field is required"})
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}

		confirmed, _ := strconv.ParseBool(c.DefaultPostForm("confirmed_lossy", "false"))

		title := c.PostForm("title")
		if title == "" {
			title = strings.TrimSuffix(header.Filename, path.Ext(header.Filename))
		}

		src, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}
		defer src.Close()

		file := uploadsvc.File{
			Name:           header.Filename,
			Size:           header.Size,
			ContentType:    header.Header.Get("Content-Type"),
			Reader:         src,
			LossyConfirmed: confirmed,
		}

		receipt, err := deps.Uploads.Upload(c.Request.Context(), file, nil)
		if err != nil {
			writeUploadError(c, err)
			return
		}

		response := types.UploadResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Upload complete"},
			URL:          receipt.URL,
			Key:          receipt.Key,
			ChunkCount:   receipt.ChunkCount,
		}

		// Register the track and queue it for transcoding
		if deps.Tracks != nil {
			track := &models.Track{
				Title:          title,
				OwnerID:        ownerID,
				OriginalURL:    receipt.URL,
				OriginalFormat: strings.TrimPrefix(strings.ToLower(path.Ext(header.Filename)), "."),
			}
			if err := deps.Tracks.CreateTrack(c.Request.Context(), track); err != nil {
				log.Printf("[ERROR] Upload stored but track registration failed: %v", err)
			} else {
				response.TrackID = track.ID
				if deps.Jobs != nil {
					if _, err := deps.Jobs.EnqueueJob(c.Request.Context(), track.ID); err != nil {
						log.Printf("[ERROR] Failed to enqueue processing for track %d: %v", track.ID, err)
					}
				}
			}
		}

		c.JSON(http.StatusCreated, response)
	}
}

// writeUploadError maps pipeline errors to HTTP responses
func writeUploadError(c *gin.Context, err error) {
	var confirm *uploadsvc.ConfirmationRequiredError
	if errors.As(err, &confirm) {
		c.JSON(http.StatusConflict, types.UploadAdvisoryResponse{
			BaseResponse:         types.BaseResponse{Status: types.StatusError, Message: confirm.Error()},
			ConfirmationRequired: true,
			Format:               confirm.Format,
		})
		return
	}

	var tooLarge *uploadsvc.FileTooLargeError
	if errors.As(err, &tooLarge) {
		appErr := apperrors.New(apperrors.ErrCodeFileTooLarge, tooLarge.Error()).
			WithDetail("size", tooLarge.Size).
			WithDetail("limit", tooLarge.Limit)
		c.JSON(appErr.GetHTTPCode(), appErr)
		return
	}

	var unsupported *uploadsvc.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		appErr := apperrors.New(apperrors.ErrCodeUnsupported, unsupported.Error()).
			WithDetail("name", unsupported.Name)
		c.JSON(appErr.GetHTTPCode(), appErr)
		return
	}

	var chunkErr *uploadsvc.ChunkUploadError
	if errors.As(err, &chunkErr) {
		appErr := apperrors.Wrap(chunkErr.Cause, apperrors.ErrCodeChunkUpload, chunkErr.Error()).
			WithDetail("chunk", chunkErr.Chunk).
			WithDetail("total", chunkErr.Total)
		c.JSON(appErr.GetHTTPCode(), appErr)
		return
	}

	appErr := apperrors.Wrap(err, apperrors.ErrCodeInternal, "Upload failed")
	c.JSON(appErr.GetHTTPCode(), appErr)
}
